package commands

import (
	"fmt"
	"time"

	"github.com/absenced-dev/absenced/internal/cli/config"
	"github.com/absenced-dev/absenced/internal/cli/serverselect"
)

// loadProjectConfig loads absenced.json with the standard guidance on failure.
func loadProjectConfig() (*config.Config, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'absenced init' to create a configuration file", err)
	}
	return cfg, nil
}

// resolveServer loads the config and returns the server for serverAlias,
// falling back to the selected or only server. This is common logic used
// by most commands.
func resolveServer(serverAlias string) (*config.Server, *config.Config, error) {
	cfg, err := loadProjectConfig()
	if err != nil {
		return nil, nil, err
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, nil, err
	}

	if server.URL == "" {
		return nil, nil, fmt.Errorf("server URL is empty. Please edit absenced.json and add a valid server URL")
	}

	return server, cfg, nil
}

// getSelectedServer resolves the server without an alias override.
func getSelectedServer() (*config.Server, error) {
	server, _, err := resolveServer("")
	return server, err
}

// formatUK renders a date the way the Home Office guidance spells them out
func formatUK(t time.Time) string {
	return t.Format("Monday 02/01/2006")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
