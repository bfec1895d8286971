package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in with an email address and password. The password is read
from the terminal without echo, or as the next line of standard input.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	email := strings.TrimSpace(loginEmail)
	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := readLine(in)
		if err != nil {
			return fmt.Errorf("reading email: %w", err)
		}
		email = line
	}
	fmt.Fprint(out, "Password: ")
	password, err := readPassword(cmd, in)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	s, err := env.client.Login(commandContext(cmd), email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s <%s>\n", s.User.DisplayName, s.User.Email)
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads without echo when stdin is the terminal.
func readPassword(cmd *cobra.Command, r *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	return readLine(r)
}

func runLogout(cmd *cobra.Command, _ []string) error {
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.client.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	s, err := env.requireSession()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s <%s>\n", s.User.DisplayName, s.User.Email)
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(out, "signed in %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
