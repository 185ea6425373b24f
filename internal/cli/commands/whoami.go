package commands

import (
	"fmt"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami()
		},
	}
}

func runWhoami() error {
	server, err := getSelectedServer()
	if err != nil {
		return err
	}

	apiClient := client.New(server.URL)

	me, err := apiClient.Me(server.URL)
	if err != nil {
		return err
	}

	fmt.Println(me.Email)
	fmt.Printf("  Server: %s (%s)\n", server.Alias, server.URL)
	if me.AuthMethod != "" {
		fmt.Printf("  Signed in via: %s\n", me.AuthMethod)
	}

	return nil
}
