package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/cli/config"
	"github.com/spf13/cobra"
)

// addAPI is the slice of the API client the add flow needs.
type addAPI interface {
	CreateTrip(serverURL string, trip client.CreateTripRequest) (*client.Trip, error)
}

// addOptions holds injectable dependencies for testing
type addOptions struct {
	api    addAPI
	server *config.Server
	out    io.Writer
}

// AddOption configures runAdd for testing
type AddOption func(*addOptions)

// WithAddClient injects a custom API client
func WithAddClient(api addAPI) AddOption {
	return func(o *addOptions) { o.api = api }
}

// WithAddServer bypasses config loading and server selection
func WithAddServer(server *config.Server) AddOption {
	return func(o *addOptions) { o.server = server }
}

// WithAddOutput redirects output away from stdout
func WithAddOutput(w io.Writer) AddOption {
	return func(o *addOptions) { o.out = w }
}

// NewAddCmd creates the add command
func NewAddCmd() *cobra.Command {
	var from, to, note, serverAlias string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a trip outside the UK",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(from, to, note, serverAlias)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Date you left the UK (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Date you returned to the UK (YYYY-MM-DD)")
	cmd.Flags().StringVar(&note, "note", "", "Optional note, e.g. the destination")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runAdd(from, to, note, serverAlias string, opts ...AddOption) error {
	options := &addOptions{}
	for _, opt := range opts {
		opt(options)
	}

	out := options.out
	if out == nil {
		out = os.Stdout
	}

	if from == "" || to == "" {
		return fmt.Errorf("both --from and --to are required (YYYY-MM-DD)")
	}

	// Catch malformed dates before making a round trip to the server.
	// Whether the trip makes sense (return after departure) is the
	// server's call.
	for _, raw := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
		}
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

	trip, err := api.CreateTrip(server.URL, client.CreateTripRequest{
		StartDate: from,
		EndDate:   to,
		Note:      note,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Trip added.")
	fmt.Fprintf(out, "  %s to %s, %d full days abroad\n",
		trip.StartDate.Format("02/01/2006"),
		trip.EndDate.Format("02/01/2006"),
		trip.FullAbsenceDays,
	)

	return nil
}
