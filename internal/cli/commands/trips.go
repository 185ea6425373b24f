package commands

import "github.com/spf13/cobra"

// NewTripsCmd groups the trip subcommands
func NewTripsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "Manage your saved trips",
	}

	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewAddCmd())
	cmd.AddCommand(NewDeleteCmd())

	return cmd
}
