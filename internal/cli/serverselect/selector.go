// Package serverselect picks which configured server a CLI command should
// talk to, remembering the choice across invocations.
package serverselect

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/absenced-dev/absenced/internal/cli/config"
	"github.com/absenced-dev/absenced/internal/cli/userconfig"
)

// ResolveServer picks a server for the current command. An explicit alias
// wins; otherwise the previously selected server is reused if it still exists
// in the project config, a lone server is picked automatically, and as a last
// resort the user is prompted.
func ResolveServer(projectConfig *config.Config, serverAlias string) (*config.Server, error) {
	if serverAlias != "" {
		return projectConfig.GetServerByAlias(serverAlias)
	}

	selectedURL, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		if server := findByURL(projectConfig, selectedURL); server != nil {
			return server, nil
		}
		// The remembered server was removed from absenced.json; forget it
		// rather than failing every command
		_ = userconfig.SetSelectedServer("")
	}

	if len(projectConfig.Servers) == 1 {
		server := &projectConfig.Servers[0]
		remember(server)
		return server, nil
	}

	server, err := PromptServerSelection(projectConfig)
	if err != nil {
		return nil, err
	}

	remember(server)
	return server, nil
}

// remember persists the choice for future commands. Failures are reported
// but never block the current command.
func remember(server *config.Server) {
	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		fmt.Printf("Warning: failed to save selected server: %v\n", err)
	}
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in absenced.json")
	}

	labels := make([]string, len(projectConfig.Servers))
	for i, server := range projectConfig.Servers {
		labels[i] = fmt.Sprintf("%s (%s)", server.Alias, server.URL)
	}

	prompt := promptui.Select{
		Label: "Select a server",
		Items: labels,
		Size:  10,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return &projectConfig.Servers[index], nil
}

// findByURL returns the configured server with the given URL, or nil.
func findByURL(cfg *config.Config, serverURL string) *config.Server {
	for i := range cfg.Servers {
		if cfg.Servers[i].URL == serverURL {
			return &cfg.Servers[i]
		}
	}
	return nil
}

// GetServerByURLOrAlias finds a server by URL or alias
func GetServerByURLOrAlias(cfg *config.Config, urlOrAlias string) (*config.Server, error) {
	if server := findByURL(cfg, urlOrAlias); server != nil {
		return server, nil
	}

	for i := range cfg.Servers {
		if cfg.Servers[i].Alias == urlOrAlias {
			return &cfg.Servers[i], nil
		}
	}

	return nil, fmt.Errorf("server with URL or alias '%s' not found", urlOrAlias)
}
