package cli

import (
	"fmt"
	"os"

	"github.com/absenced-dev/absenced/internal/cli/commands"
	"github.com/absenced-dev/absenced/internal/cli/update"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "absenced",
	Short: "Absenced - UK citizenship absence checker",
	Long: `Absenced CLI - Track your trips outside the UK and check the
naturalisation absence limits from the terminal.

Trips live on an absenced server; sign in once with 'absenced login' and
the token is kept in your OS keyring.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Skip update check for the update and version commands
		if cmd.Name() == "update" || cmd.Name() == "version" {
			return
		}

		// Check for updates (runs before every command except update/version)
		update.PrintUpdateNotification(version)
	},
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("absenced version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewTripsCmd())
	rootCmd.AddCommand(commands.NewSummaryCmd())
	rootCmd.AddCommand(commands.NewEarliestCmd())
	rootCmd.AddCommand(commands.NewRecomputeCmd())
	rootCmd.AddCommand(commands.NewPoliciesCmd())
	rootCmd.AddCommand(commands.NewExportCmd())
	rootCmd.AddCommand(commands.NewDashCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewUpdateCmd(version))
	rootCmd.AddCommand(commands.NewUpdateServerCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
