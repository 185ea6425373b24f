package pgexport

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/absenced-dev/absenced/internal/models"
	"github.com/absenced-dev/absenced/internal/redact"
)

// Client wraps a PostgreSQL connection used as an export target, for
// example a caseworker's database that wants a copy of the absence record.
type Client struct {
	db               *sql.DB
	connectionString string
}

// NewClient creates a new PostgreSQL export client
func NewClient(connectionString string) (*Client, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	return &Client{db: db, connectionString: connectionString}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// GetVersion retrieves the PostgreSQL version string
func (c *Client) GetVersion(ctx context.Context) (string, error) {
	var version string
	query := "SHOW server_version"
	if err := c.db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	return version, nil
}

// EnsureSchema creates the export table if it does not exist
func (c *Client) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS absence_trips (
			id          text PRIMARY KEY,
			user_email  text NOT NULL,
			start_date  date NOT NULL,
			end_date    date NOT NULL,
			note        text NOT NULL DEFAULT '',
			exported_at timestamptz NOT NULL
		)
	`
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create export table: %w", err)
	}
	return nil
}

// ExportTrips upserts the given trips into the export table. When a
// redactor is provided, the email and every note are scrubbed first.
// Returns the number of rows written.
func (c *Client) ExportTrips(ctx context.Context, email string, trips []models.Trip, redactor *redact.Redactor) (int, error) {
	if redactor != nil {
		email = redactor.Redact(email)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO absence_trips (id, user_email, start_date, end_date, note, exported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			user_email  = EXCLUDED.user_email,
			start_date  = EXCLUDED.start_date,
			end_date    = EXCLUDED.end_date,
			note        = EXCLUDED.note,
			exported_at = EXCLUDED.exported_at
	`

	exportedAt := time.Now().UTC()
	written := 0
	for _, trip := range trips {
		note := trip.Note
		if redactor != nil {
			note = redactor.Redact(note)
		}

		if _, err := tx.ExecContext(ctx, query,
			trip.ID, email, trip.StartDate, trip.EndDate, note, exportedAt); err != nil {
			return 0, fmt.Errorf("failed to export trip %s: %w", trip.ID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit export: %w", err)
	}
	return written, nil
}

// TestConnection tests if a connection string is valid by pinging the database
func TestConnection(ctx context.Context, connectionString string) error {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return fmt.Errorf("invalid connection string: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	return nil
}
