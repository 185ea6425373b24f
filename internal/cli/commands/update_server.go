package commands

import (
	"fmt"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/spf13/cobra"
)

// NewUpdateServerCmd creates the update-server command
func NewUpdateServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-server",
		Short: "Update all absenced servers version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdateServer()
		},
	}

	return cmd
}

func runUpdateServer() error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	if len(cfg.Servers) == 0 {
		return fmt.Errorf("no servers configured. Run 'absenced init' to add a server")
	}

	var triggered, failed int
	for _, server := range cfg.Servers {
		if server.URL == "" {
			fmt.Printf("Skipping server '%s' (no URL configured)\n", server.Alias)
			continue
		}

		apiClient := client.New(server.URL)

		if err := apiClient.UpdateServer(server.URL); err != nil {
			fmt.Printf("Failed to update server '%s': %v\n", server.Alias, err)
			failed++
			continue
		}

		fmt.Printf("Update triggered on server '%s'\n", server.Alias)
		triggered++
	}

	if triggered == 0 && failed > 0 {
		return fmt.Errorf("all %d server update(s) failed", failed)
	}

	return nil
}
