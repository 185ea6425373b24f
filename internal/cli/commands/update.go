package commands

import (
	"context"
	"fmt"

	"github.com/absenced-dev/absenced/internal/cli/update"
	"github.com/spf13/cobra"
)

// NewUpdateCmd creates the update command
func NewUpdateCmd(version string) *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update absenced CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(version, checkOnly)
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Check for a newer version without installing it")

	return cmd
}

func runUpdate(currentVersion string, checkOnly bool) error {
	if checkOnly {
		latest, err := update.LatestVersion(context.Background())
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		if update.IsNewer(currentVersion, latest) {
			fmt.Printf("Update available: %s -> %s\n", currentVersion, latest)
		} else {
			fmt.Printf("Already up to date (version %s)\n", currentVersion)
		}
		return nil
	}

	if err := update.SelfUpdate(currentVersion); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	return nil
}
