package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail         string
	loginPasswordStdin bool
)

// readPassword prompts on the terminal without echo.
var readPassword = func() (string, error) {
	b, err := term.ReadPassword(int(syscall.Stdin))
	return string(b), err
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and register this device",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and delete stored credentials",
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
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	svc, err := openServices(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	email := strings.TrimSpace(loginEmail)
	if email == "" {
		fmt.Fprint(out, "Email: ")
		if email, err = readLine(in); err != nil {
			return fmt.Errorf("read email: %w", err)
		}
	}

	var password string
	if loginPasswordStdin {
		password, err = readLine(in)
	} else {
		fmt.Fprint(out, "Password: ")
		password, err = readPassword()
		fmt.Fprintln(out)
	}
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	sess, err := svc.Session.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s (user %d)\n", displayUser(sess.User.FirstName, sess.User.LastName, sess.User.Email), sess.User.ID)
	if !sess.TokenExpiry.IsZero() {
		fmt.Fprintf(out, "Device %s registered until %s\n", sess.DeviceID, sess.TokenExpiry.Local().Format(time.RFC1123))
	}
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	svc, err := openServices(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if !svc.Session.LoggedIn() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
		return nil
	}
	// Credentials are removed even when the server call fails.
	if err := svc.Session.Logout(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	user, err := svc.Session.Current()
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), user, func(tw *tabwriter.Writer) {
		row(tw, "ID:", user.ID)
		row(tw, "Name:", displayUser(user.FirstName, user.LastName, nil))
		row(tw, "Email:", str(user.Email))
		if user.AccountID != nil {
			row(tw, "Account:", *user.AccountID)
		}
	})
}

func displayUser(first, last, email *string) string {
	name := strings.TrimSpace(strings.TrimSpace(deref(first)) + " " + strings.TrimSpace(deref(last)))
	if name == "" {
		name = deref(email)
	}
	return orDash(name)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
