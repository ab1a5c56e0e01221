package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/HaiFongPan/furryfriends-cli/internal/interaction"
)

var (
	authPassword      string
	authPasswordStdin bool
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in to the FurryFriends server",
	Long: `Log in and remember the session for later commands and the interactive client.
The password is prompted for unless --password or --password-stdin is given.

Examples:
  furryfriends login alice
  echo "$PASS" | furryfriends login alice --password-stdin`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCredentials(cmd, interaction.FormLogin, args)
	},
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create a FurryFriends account",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitCredentials(cmd, interaction.FormRegister, args)
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the saved session",
	Args:  cobra.NoArgs,
	RunE:  logout,
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the saved session is logged in",
	Args:  cobra.NoArgs,
	RunE:  status,
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, statusCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authPassword, "password", "p", "", "password (prompted for when omitted)")
		c.Flags().BoolVar(&authPasswordStdin, "password-stdin", false, "read the password from stdin")
	}
}

func submitCredentials(cmd *cobra.Command, form interaction.Form, args []string) error {
	cfg := GetConfig()

	client, userData, err := newSessionClient(cfg)
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	username := ""
	if len(args) > 0 {
		username = args[0]
	} else {
		username, err = prompt(cmd.ErrOrStderr(), in, "Username: ", userData.LastUsername)
		if err != nil {
			return err
		}
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}

	password, err := readPassword(cmd, in)
	if err != nil {
		return err
	}

	fields := url.Values{"username": {username}, "password": {password}}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	post := client.Login
	if form == interaction.FormRegister {
		post = client.Register
	}
	outcome, postErr := post(ctx, fields)
	text, err := interaction.DescribeOutcome(form, outcome, postErr)
	if err != nil {
		return fmt.Errorf("%s: %w", text, err)
	}

	saveSession(client, userData)
	if err := userData.SetLastUsername(username); err != nil {
		logrus.WithError(err).Warn("failed to save last username")
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

// readPassword takes the password from the flag, stdin, or an echo-less prompt
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	if !authPasswordStdin {
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			raw, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return "", fmt.Errorf("failed to read password: %w", err)
			}
			return string(raw), nil
		}
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt reads one line, returning fallback for an empty answer
func prompt(w io.Writer, in *bufio.Reader, label, fallback string) (string, error) {
	if fallback != "" {
		label = fmt.Sprintf("%s[%s] ", label, fallback)
	}
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if line = strings.TrimSpace(line); line == "" {
		return fallback, nil
	}
	return line, nil
}

func logout(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	client, userData, err := newSessionClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	if err := client.Logout(ctx); err != nil {
		// the local session is dropped either way
		logrus.WithError(err).Warn("server logout failed")
	}
	if err := userData.ClearSession(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), interaction.MsgLoggedOut)
	return nil
}

func status(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	client, userData, err := newSessionClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	ok, err := client.CheckAuth(ctx)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server: %s\n", client.BaseURL())
	if !ok {
		fmt.Fprintln(out, "Not logged in")
		return nil
	}
	if userData.LastUsername != "" {
		fmt.Fprintf(out, "Logged in as %s\n", userData.LastUsername)
	} else {
		fmt.Fprintln(out, "Logged in")
	}
	return nil
}
