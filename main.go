package main

import "github.com/HaiFongPan/furryfriends-cli/cmd"

func main() {
	cmd.Execute()
}
