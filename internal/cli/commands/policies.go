package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/cli/userconfig"
	"github.com/spf13/cobra"
)

// NewPoliciesCmd creates the policies command
func NewPoliciesCmd() *cobra.Command {
	var serverAlias, useName string

	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List the policy presets the server knows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPolicies(serverAlias, useName)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")
	cmd.Flags().StringVar(&useName, "use", "", "Make this preset the default for summary and earliest")

	return cmd
}

func runPolicies(serverAlias, useName string) error {
	server, _, err := resolveServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient := client.New(server.URL)

	policies, err := apiClient.ListPolicies(server.URL)
	if err != nil {
		return err
	}

	if useName != "" {
		found := false
		for _, p := range policies {
			if p.Name == useName {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown policy %q, run 'absenced policies' to see the presets", useName)
		}

		if err := userconfig.SetDefaultPolicy(useName); err != nil {
			return fmt.Errorf("failed to save default policy: %w", err)
		}

		fmt.Printf("Default policy set to %q\n", useName)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\t12-MONTH LIMIT\t5-YEAR LIMIT\tLABEL")
	fmt.Fprintln(w, "────\t──────────────\t────────────\t─────")

	for _, p := range policies {
		name := p.Name
		if p.Default {
			name += " (default)"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			name,
			p.MaxTwelveMonthDays,
			p.MaxFiveYearDays,
			p.Label,
		)
	}

	w.Flush()

	return nil
}
