package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/cli/config"
	"github.com/absenced-dev/absenced/internal/cli/userconfig"
	"github.com/spf13/cobra"
)

// earliestAPI is the slice of the API client the earliest flow needs.
type earliestAPI interface {
	Earliest(serverURL, on, policy string) (*client.Earliest, error)
}

// earliestOptions holds injectable dependencies for testing
type earliestOptions struct {
	api    earliestAPI
	server *config.Server
	out    io.Writer
}

// EarliestOption configures runEarliest for testing
type EarliestOption func(*earliestOptions)

// WithEarliestClient injects a custom API client
func WithEarliestClient(api earliestAPI) EarliestOption {
	return func(o *earliestOptions) { o.api = api }
}

// WithEarliestServer bypasses config loading and server selection
func WithEarliestServer(server *config.Server) EarliestOption {
	return func(o *earliestOptions) { o.server = server }
}

// WithEarliestOutput redirects output away from stdout
func WithEarliestOutput(w io.Writer) EarliestOption {
	return func(o *earliestOptions) { o.out = w }
}

// NewEarliestCmd creates the earliest command
func NewEarliestCmd() *cobra.Command {
	var on, policy, serverAlias string

	cmd := &cobra.Command{
		Use:   "earliest",
		Short: "Find the first date you could apply on",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEarliest(on, policy, serverAlias)
		},
	}

	cmd.Flags().StringVar(&on, "on", "", "Date to scan from (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&policy, "policy", "", "Policy preset (default from absenced.json or the server)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runEarliest(on, policy, serverAlias string, opts ...EarliestOption) error {
	options := &earliestOptions{}
	for _, opt := range opts {
		opt(options)
	}

	out := options.out
	if out == nil {
		out = os.Stdout
	}

	if on != "" {
		if _, err := time.Parse("2006-01-02", on); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", on)
		}
	}

	server := options.server
	if server == nil {
		var err error
		var cfg *config.Config
		server, cfg, err = resolveServer(serverAlias)
		if err != nil {
			return err
		}
		if policy == "" {
			policy = cfg.Policy
		}
		if policy == "" {
			policy, _ = userconfig.GetDefaultPolicy()
		}
	}

	api := options.api
	if api == nil {
		api = client.New(server.URL)
	}

	result, err := api.Earliest(server.URL, on, policy)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Policy: %s\n", result.PolicyLabel)
	fmt.Fprintln(out)

	if !result.Found || result.Check == nil {
		fmt.Fprintf(out, "No eligible date found within the next %d years.\n", result.SearchYears)
		return nil
	}

	check := result.Check

	fmt.Fprintf(out, "Earliest eligible date: %s\n", formatUK(check.CandidateDate))
	fmt.Fprintf(out, "  Last 12 months: %d / %d\n", check.Days12Months, result.MaxTwelveMonthDays)
	fmt.Fprintf(out, "  Last 5 years: %d / %d\n", check.Days5Years, result.MaxFiveYearDays)
	fmt.Fprintf(out, "  Home Office presence test date: %s\n", formatUK(check.PresenceDate))
	fmt.Fprintf(out, "  Present in UK on that date: %s\n", yesNo(check.PresentOnPresenceDate))

	return nil
}
