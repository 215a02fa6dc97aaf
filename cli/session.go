// ABOUTME: Session CLI commands: login, logout, whoami and password recovery
// ABOUTME: Passwords are read from the terminal without echo when not given as flags
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harperreed/bolha/api"
	"github.com/harperreed/bolha/models"
	"github.com/harperreed/bolha/session"
)

// readSecret prompts on the terminal, falling back to a plain line read
// when stdin is not a terminal.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCommand(state *rootState) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")

	cmd.RunE = state.withApp(false, func(cmd *cobra.Command, a *app, _ []string) error {
		if err := a.connect(); err != nil {
			return err
		}
		if password == "" {
			var err error
			if password, err = readSecret("Password: "); err != nil {
				return err
			}
		}

		s, err := a.session.SignIn(cmd.Context(), a.client, models.Credentials{Email: email, Password: password})
		if err != nil {
			if msg, ok := api.DisplayMessage(err); ok {
				return errors.New(msg)
			}
			return err
		}
		fmt.Fprintf(a.out, "✓ Signed in as %s <%s>\n", s.User.Name, s.User.Email)
		return nil
	})
	return cmd
}

func newLogoutCommand(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = state.withApp(false, func(_ *cobra.Command, a *app, _ []string) error {
		if err := a.connect(); err != nil {
			return err
		}
		if err := a.session.SignOut(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "✓ Signed out")
		return nil
	})
	return cmd
}

func newWhoamiCommand(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = state.withApp(false, func(_ *cobra.Command, a *app, _ []string) error {
		if err := a.connect(); err != nil {
			return err
		}
		s := a.session.Current()
		if s.Empty() {
			fmt.Fprintln(a.out, "Not signed in")
			return nil
		}
		fmt.Fprintf(a.out, "Name:  %s\nEmail: %s\nID:    %s\n", s.User.Name, s.User.Email, s.User.ID)
		if s.User.AvatarURL != "" {
			fmt.Fprintf(a.out, "Avatar: %s\n", s.User.AvatarURL)
		}
		if !a.session.Valid() {
			fmt.Fprintln(a.out, "Session expired (run 'bolha login')")
		}
		return nil
	})
	return cmd
}

func newPasswordCommand(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password recovery",
	}

	var email string
	forgot := &cobra.Command{
		Use:   "forgot",
		Short: "Request a password reset link",
		Args:  cobra.NoArgs,
	}
	forgot.Flags().StringVar(&email, "email", "", "Account email (required)")
	_ = forgot.MarkFlagRequired("email")
	forgot.RunE = state.withApp(false, func(cmd *cobra.Command, a *app, _ []string) error {
		if err := a.connect(); err != nil {
			return err
		}
		if err := a.client.ForgotPassword(cmd.Context(), email); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "✓ If the account exists, a reset link was sent")
		return nil
	})

	var token string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset token",
		Args:  cobra.NoArgs,
	}
	reset.Flags().StringVar(&token, "token", "", "Reset token from the link (required)")
	_ = reset.MarkFlagRequired("token")
	reset.RunE = state.withApp(false, func(cmd *cobra.Command, a *app, _ []string) error {
		if err := a.connect(); err != nil {
			return err
		}
		return resetPassword(cmd.Context(), a, token)
	})

	cmd.AddCommand(forgot, reset)
	return cmd
}

func resetPassword(ctx context.Context, a *app, token string) error {
	password, err := readSecret("New password: ")
	if err != nil {
		return err
	}
	confirmation, err := readSecret("Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirmation {
		return errors.New("passwords do not match")
	}
	if err := a.client.ResetPassword(ctx, token, password, confirmation); err != nil {
		if msg, ok := api.DisplayMessage(err); ok {
			return errors.New(msg)
		}
		return err
	}
	if err := a.session.SignOut(); err != nil && !errors.Is(err, session.ErrNoSession) {
		a.logger.Warn("failed to clear session after reset")
	}
	fmt.Fprintln(a.out, "✓ Password changed, sign in again")
	return nil
}
