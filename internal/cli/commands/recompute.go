package commands

import (
	"fmt"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/spf13/cobra"
)

// NewRecomputeCmd creates the recompute command
func NewRecomputeCmd() *cobra.Command {
	var policy, serverAlias string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recalculate your eligibility and store a fresh snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(policy, serverAlias)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", "", "Policy preset (default from absenced.json or the server)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runRecompute(policy, serverAlias string) error {
	server, cfg, err := resolveServer(serverAlias)
	if err != nil {
		return err
	}
	if policy == "" {
		policy = cfg.Policy
	}

	apiClient := client.New(server.URL)

	fmt.Println("Recomputing eligibility...")

	snapshot, err := apiClient.Recompute(server.URL, policy)
	if err != nil {
		return err
	}

	fmt.Println("Snapshot stored.")
	fmt.Printf("  Policy: %s\n", snapshot.PolicyName)
	fmt.Printf("  As of: %s\n", formatUK(snapshot.AsOf))
	fmt.Printf("  Last 12 months: %d\n", snapshot.Days12Months)
	fmt.Printf("  Last 5 years: %d\n", snapshot.Days5Years)
	if snapshot.EarliestDate != nil {
		fmt.Printf("  Earliest eligible date: %s\n", formatUK(*snapshot.EarliestDate))
	} else {
		fmt.Println("  Earliest eligible date: none found")
	}

	return nil
}
