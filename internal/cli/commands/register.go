package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/absenced-dev/absenced/internal/authclient"
	"github.com/absenced-dev/absenced/internal/cli/auth"
	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the auth provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set ABSENCED_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ABSENCED_PASSWORD, will prompt if not provided)")

	return cmd
}

func runRegister(email, password string) error {
	if email == "" {
		email = os.Getenv("ABSENCED_EMAIL")
	}
	if password == "" {
		password = os.Getenv("ABSENCED_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or ABSENCED_EMAIL env var)")
	}

	server, err := getSelectedServer()
	if err != nil {
		return err
	}

	// Ask twice when prompting; a typo in a write-only password field locks
	// the account out immediately
	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or ABSENCED_PASSWORD env var)")
		}

		fmt.Print("Password: ")
		first, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()

		fmt.Print("Confirm password: ")
		second, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()

		if string(first) != string(second) {
			return fmt.Errorf("passwords do not match")
		}
		password = string(first)
	}

	apiClient := client.New(server.URL)
	authCfg, err := apiClient.AuthConfig()
	if err != nil {
		return fmt.Errorf("failed to fetch auth settings from %s: %w", server.URL, err)
	}
	provider := authclient.New(authCfg.AuthURL, authCfg.AnonKey, zerolog.Nop())

	fmt.Printf("Creating account on %s (%s)...\n", server.Alias, server.URL)

	session, user, err := provider.SignUp(context.Background(), email, password)
	if err != nil {
		return fmt.Errorf("%s", authclient.FriendlyMessage(err))
	}

	// Providers with email confirmation switched on return no session until
	// the link in the email is clicked
	if session == nil {
		fmt.Println("Almost there! Check your inbox to confirm your email, then run 'absenced login'.")
		return nil
	}

	if err := auth.SaveToken(server.URL, session.AccessToken); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	fmt.Println("✓ Account created!")
	if user != nil {
		fmt.Printf("  User: %s\n", user.Email)
	}

	return nil
}
