package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keybindings for the page view
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Home     key.Binding
	Gallery  key.Binding
	MyImages key.Binding
	Upload   key.Binding
	Login    key.Binding
	Logout   key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "view image"),
		),
		Home: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "home"),
		),
		Gallery: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "gallery"),
		),
		MyImages: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "my images"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload"),
		),
		Login: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "login"),
		),
		Logout: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "logout"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "f5"),
			key.WithHelp("r/f5", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Home, k.Gallery, k.MyImages, k.Upload, k.Login, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Refresh},
		{k.Home, k.Gallery, k.MyImages},
		{k.Upload, k.Login, k.Logout},
		{k.Help, k.Quit},
	}
}

// DialogKeyMap defines keybindings inside the dialogs
type DialogKeyMap struct {
	Submit     key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	Close      key.Binding
	Switch     key.Binding
	Enlarge    key.Binding
	Remove     key.Binding
	CopyURL    key.Binding
	ForceClose key.Binding
}

// DefaultDialogKeyMap returns default dialog keybindings
func DefaultDialogKeyMap() DialogKeyMap {
	return DialogKeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Switch: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "login/register"),
		),
		Enlarge: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "enlarge preview"),
		),
		Remove: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "remove file"),
		),
		CopyURL: key.NewBinding(
			key.WithKeys("c", "y"),
			key.WithHelp("c", "copy URL"),
		),
		ForceClose: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
