package commands

import (
	"context"
	"fmt"
	"os"

	"syscall"

	"github.com/absenced-dev/absenced/internal/authclient"
	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/cli/config"
	"github.com/absenced-dev/absenced/internal/cli/serverselect"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginAPI is the slice of the auth provider surface the login flow needs.
// *authclient.Client satisfies it; tests substitute a mock.
type loginAPI interface {
	SignInWithPassword(ctx context.Context, email, password string) (*authclient.Session, error)
}

// tokenSaver persists tokens after a successful sign-in.
type tokenSaver interface {
	SaveToken(serverURL, token string) error
}

// loginOptions holds injectable dependencies so tests can run the flow
// without a real provider or keyring.
type loginOptions struct {
	api        loginAPI
	tokenStore tokenSaver
	server     *config.Server
}

// LoginOption configures runLogin for testing
type LoginOption func(*loginOptions)

// WithAPIClient injects a custom auth API client
func WithAPIClient(api loginAPI) LoginOption {
	return func(o *loginOptions) { o.api = api }
}

// WithTokenStore injects a custom token store
func WithTokenStore(store tokenSaver) LoginOption {
	return func(o *loginOptions) { o.tokenStore = store }
}

// WithServer bypasses config loading and server selection
func WithServer(server *config.Server) LoginOption {
	return func(o *loginOptions) { o.server = server }
}

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with an absenced server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set ABSENCED_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ABSENCED_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(email, password string, opts ...LoginOption) error {
	options := &loginOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("ABSENCED_EMAIL")
	}
	if password == "" {
		password = os.Getenv("ABSENCED_PASSWORD")
	}

	// Validate email
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or ABSENCED_EMAIL env var)")
	}

	server := options.server
	if server == nil {
		// Load config
		cfg, err := config.LoadFromCurrentDir()
		if err != nil {
			return fmt.Errorf("failed to load config: %w\nRun 'absenced init' to create a configuration file", err)
		}

		// Resolve which server to use (respects selected server from select-server command)
		server, err = serverselect.ResolveServer(cfg, "")
		if err != nil {
			return err
		}
	}

	if server.URL == "" {
		return fmt.Errorf("server URL is empty. Please edit absenced.json and add a valid server URL")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		// Check if stdin is a terminal (not piped)
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or ABSENCED_PASSWORD env var)")
		}
	}

	api := options.api
	if api == nil {
		// The server publishes which auth provider it trusts. The CLI signs
		// in against that provider directly, so no provider keys ever live
		// in absenced.json.
		apiClient := client.New(server.URL)
		authCfg, err := apiClient.AuthConfig()
		if err != nil {
			return fmt.Errorf("failed to fetch auth settings from %s: %w", server.URL, err)
		}
		api = authclient.New(authCfg.AuthURL, authCfg.AnonKey, zerolog.Nop())
	}

	tokenStore := options.tokenStore
	if tokenStore == nil {
		tokenStore = &keyringTokenStore{}
	}

	// Attempt login
	fmt.Printf("Logging in to %s (%s)...\n", server.Alias, server.URL)

	session, err := api.SignInWithPassword(context.Background(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Save token
	if err := tokenStore.SaveToken(server.URL, session.AccessToken); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s\n", session.User.Email)

	return nil
}
