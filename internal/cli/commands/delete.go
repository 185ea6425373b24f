package commands

import (
	"fmt"
	"syscall"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/cli/config"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// deleteAPI is the slice of the API client the delete flow needs.
type deleteAPI interface {
	ListTrips(serverURL string) ([]client.Trip, error)
	DeleteTrip(serverURL, tripID string) error
}

// deleteOptions holds injectable dependencies for testing
type deleteOptions struct {
	api       deleteAPI
	server    *config.Server
	assumeYes bool
}

// DeleteOption configures runDelete for testing
type DeleteOption func(*deleteOptions)

// WithDeleteClient injects a custom API client
func WithDeleteClient(api deleteAPI) DeleteOption {
	return func(o *deleteOptions) { o.api = api }
}

// WithDeleteServer bypasses config loading and server selection
func WithDeleteServer(server *config.Server) DeleteOption {
	return func(o *deleteOptions) { o.server = server }
}

// WithDeleteAssumeYes skips the confirmation prompt
func WithDeleteAssumeYes() DeleteOption {
	return func(o *deleteOptions) { o.assumeYes = true }
}

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	var serverAlias string
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "delete <trip-id>",
		Short: "Delete a saved trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []DeleteOption{}
			if assumeYes {
				opts = append(opts, WithDeleteAssumeYes())
			}
			return runDelete(args[0], serverAlias, opts...)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking for confirmation")

	return cmd
}

func runDelete(tripID, serverAlias string, opts ...DeleteOption) error {
	options := &deleteOptions{}
	for _, opt := range opts {
		opt(options)
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

	// First, list trips to find the one with a matching ID
	trips, err := api.ListTrips(server.URL)
	if err != nil {
		return fmt.Errorf("failed to list trips: %w", err)
	}

	var target *client.Trip
	for i := range trips {
		if trips[i].ID == tripID {
			target = &trips[i]
			break
		}
	}

	if target == nil {
		return fmt.Errorf("trip '%s' not found", tripID)
	}

	// Confirm before deleting, but only when someone is at the terminal
	if !options.assumeYes && term.IsTerminal(int(syscall.Stdin)) {
		prompt := promptui.Prompt{
			Label: fmt.Sprintf("Delete trip %s to %s",
				target.StartDate.Format("02/01/2006"),
				target.EndDate.Format("02/01/2006")),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := api.DeleteTrip(server.URL, tripID); err != nil {
		return err
	}

	fmt.Println("Trip deleted.")

	return nil
}
