package commands

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/models"
	"github.com/absenced-dev/absenced/internal/pgexport"
	"github.com/absenced-dev/absenced/internal/redact"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var postgresURL, serverAlias string
	var doRedact bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy your trips into a PostgreSQL database",
		Long: `Copy your saved trips into a PostgreSQL database of your choosing,
for example one a solicitor or caseworker already works with. The target
table (absence_trips) is created if missing and re-exports upsert in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(postgresURL, serverAlias, doRedact)
		},
	}

	cmd.Flags().StringVar(&postgresURL, "postgres-url", "", "Connection string for the target database (required)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")
	cmd.Flags().BoolVar(&doRedact, "redact", false, "Scrub emails, phone numbers and configured patterns from notes")
	cmd.MarkFlagRequired("postgres-url")

	return cmd
}

func runExport(postgresURL, serverAlias string, doRedact bool) error {
	if postgresURL == "" {
		return fmt.Errorf("--postgres-url is required")
	}

	server, cfg, err := resolveServer(serverAlias)
	if err != nil {
		return err
	}

	var redactor *redact.Redactor
	if doRedact {
		rules := redact.DefaultRules()
		for _, raw := range cfg.RedactRules {
			pattern, err := regexp.Compile(raw.Pattern)
			if err != nil {
				return fmt.Errorf("invalid redact rule '%s': %w", raw.Name, err)
			}
			rules = append(rules, redact.Rule{
				Name:     raw.Name,
				Pattern:  pattern,
				Template: raw.Template,
			})
		}
		redactor = redact.New(rules...)
	}

	apiClient := client.New(server.URL)

	me, err := apiClient.Me(server.URL)
	if err != nil {
		return err
	}

	trips, err := apiClient.ListTrips(server.URL)
	if err != nil {
		return err
	}

	if len(trips) == 0 {
		fmt.Println("No saved trips yet. Nothing to export.")
		return nil
	}

	rows := make([]models.Trip, 0, len(trips))
	for _, trip := range trips {
		row := models.Trip{
			UserID:    me.UserID,
			StartDate: trip.StartDate,
			EndDate:   trip.EndDate,
			Note:      trip.Note,
		}
		row.ID = trip.ID
		rows = append(rows, row)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pg, err := pgexport.NewClient(postgresURL)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("could not reach the target database: %w", err)
	}

	if err := pg.EnsureSchema(ctx); err != nil {
		return err
	}

	written, err := pg.ExportTrips(ctx, me.Email, rows, redactor)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Exported %d trips\n", written)
	if redactor != nil {
		fmt.Printf("  Redacted %d distinct values\n", redactor.Replacements())
	}

	return nil
}
