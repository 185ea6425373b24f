package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/absenced-dev/absenced/internal/authclient"
	"github.com/absenced-dev/absenced/internal/cli/auth"
	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

func runLogout() error {
	server, err := getSelectedServer()
	if err != nil {
		return err
	}

	// Best effort: revoke the provider session too. A dead provider should
	// never block clearing the local token.
	if token, err := auth.Default.LoadToken(server.URL); err == nil && token != "" {
		apiClient := client.New(server.URL)
		if authCfg, err := apiClient.AuthConfig(); err == nil {
			provider := authclient.New(authCfg.AuthURL, authCfg.AnonKey, zerolog.Nop())

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := provider.SignOut(ctx, token); err != nil {
				fmt.Println("⚠ Could not reach the auth provider, clearing the local token only")
			}
		}
	}

	if err := auth.Default.DeleteToken(server.URL); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	fmt.Printf("✓ Logged out of %s (%s)\n", server.Alias, server.URL)

	return nil
}
