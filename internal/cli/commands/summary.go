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

// summaryAPI is the slice of the API client the summary flow needs.
type summaryAPI interface {
	Summary(serverURL, on, policy string) (*client.Summary, error)
}

// summaryOptions holds injectable dependencies for testing
type summaryOptions struct {
	api    summaryAPI
	server *config.Server
	out    io.Writer
}

// SummaryOption configures runSummary for testing
type SummaryOption func(*summaryOptions)

// WithSummaryClient injects a custom API client
func WithSummaryClient(api summaryAPI) SummaryOption {
	return func(o *summaryOptions) { o.api = api }
}

// WithSummaryServer bypasses config loading and server selection
func WithSummaryServer(server *config.Server) SummaryOption {
	return func(o *summaryOptions) { o.server = server }
}

// WithSummaryOutput redirects output away from stdout
func WithSummaryOutput(w io.Writer) SummaryOption {
	return func(o *summaryOptions) { o.out = w }
}

// NewSummaryCmd creates the summary command
func NewSummaryCmd() *cobra.Command {
	var on, policy, serverAlias string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Check your rolling absence counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(on, policy, serverAlias)
		},
	}

	cmd.Flags().StringVar(&on, "on", "", "Candidate application date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&policy, "policy", "", "Policy preset (default from absenced.json or the server)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runSummary(on, policy, serverAlias string, opts ...SummaryOption) error {
	options := &summaryOptions{}
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
		// The project config may pin a preset for everyone working in
		// this directory; failing that, fall back to the user's sticky
		// default from `absenced policies --use`
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

	summary, err := api.Summary(server.URL, on, policy)
	if err != nil {
		return err
	}

	check := summary.Check

	fmt.Fprintf(out, "Policy: %s\n", summary.PolicyLabel)
	fmt.Fprintf(out, "Saved trips: %d\n", summary.TripCount)
	if on == "" {
		fmt.Fprintf(out, "Using today as: %s\n", formatUK(check.CandidateDate))
	} else {
		fmt.Fprintf(out, "Checking as of: %s\n", formatUK(check.CandidateDate))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Last 12 months: %d / %d\n", check.Days12Months, summary.MaxTwelveMonthDays)
	fmt.Fprintf(out, "Last 5 years: %d / %d\n", check.Days5Years, summary.MaxFiveYearDays)
	fmt.Fprintf(out, "Home Office presence test date: %s\n", formatUK(check.PresenceDate))
	fmt.Fprintf(out, "Present in UK on that date: %s\n", yesNo(check.PresentOnPresenceDate))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Eligible to apply on that date: %s\n", yesNo(check.FullyEligible))

	return nil
}
