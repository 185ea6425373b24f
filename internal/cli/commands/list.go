package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/cli/config"
	"github.com/spf13/cobra"
)

// listAPI is the slice of the API client the list flow needs.
type listAPI interface {
	ListTrips(serverURL string) ([]client.Trip, error)
}

// listOptions holds injectable dependencies for testing
type listOptions struct {
	api    listAPI
	server *config.Server
	out    io.Writer
}

// ListOption configures runList for testing
type ListOption func(*listOptions)

// WithListClient injects a custom API client
func WithListClient(api listAPI) ListOption {
	return func(o *listOptions) { o.api = api }
}

// WithListServer bypasses config loading and server selection
func WithListServer(server *config.Server) ListOption {
	return func(o *listOptions) { o.server = server }
}

// WithListOutput redirects output away from stdout
func WithListOutput(w io.Writer) ListOption {
	return func(o *listOptions) { o.out = w }
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your saved trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runList(serverAlias string, opts ...ListOption) error {
	options := &listOptions{}
	for _, opt := range opts {
		opt(options)
	}

	out := options.out
	if out == nil {
		out = os.Stdout
	}

	server := options.server
	if server == nil {
		var err error
		server, _, err = resolveServer(serverAlias)
		if err != nil {
			return err
		}
	}

	api := options.api
	if api == nil {
		api = client.New(server.URL)
	}

	// List trips
	trips, err := api.ListTrips(server.URL)
	if err != nil {
		return err
	}

	if len(trips) == 0 {
		fmt.Fprintln(out, "No saved trips yet.")
		fmt.Fprintln(out, "\nAdd a trip with: absenced trips add --from YYYY-MM-DD --to YYYY-MM-DD")
		return nil
	}

	// Display trips in a table
	fmt.Fprintf(out, "Trips on %s (%s):\n\n", server.Alias, server.URL)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLEFT UK\tRETURNED\tFULL DAYS ABROAD\tNOTE")
	fmt.Fprintln(w, "──\t───────\t────────\t────────────────\t────")

	for _, trip := range trips {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			trip.ID,
			trip.StartDate.Format("02/01/2006"),
			trip.EndDate.Format("02/01/2006"),
			trip.FullAbsenceDays,
			trip.Note,
		)
	}

	w.Flush()

	return nil
}
