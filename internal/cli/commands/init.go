package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/absenced-dev/absenced/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <server-url>",
		Short: "Init a new absenced server",
		Args:  cobra.ExactArgs(1),
		RunE:  runInit,
	}
}

// initOptions controls side effects that tests need to suppress.
type initOptions struct {
	skipBrowser bool
}

func runInit(cmd *cobra.Command, args []string) error {
	return runInitWithOptions(args[0], initOptions{})
}

func runInitWithOptions(rawURL string, opts initOptions) error {
	serverURL, err := config.NormalizeServerURL(rawURL)
	if err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		// Load existing config
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Println("Found existing absenced.json")
	} else {
		// Create new config
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	// Check if server already exists
	serverExists := false
	for _, server := range cfg.Servers {
		if server.URL == serverURL {
			serverExists = true
			break
		}
	}

	if serverExists {
		fmt.Printf("Server %s already exists in absenced.json\n", serverURL)
	} else {
		// Add new server
		alias := "production"
		if len(cfg.Servers) > 0 {
			alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
		}

		cfg.Servers = append(cfg.Servers, config.Server{
			URL:   serverURL,
			Alias: alias,
		})

		// Save to file
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			fmt.Printf("✓ Created ./absenced.json with server %s (%s)\n", serverURL, alias)
		} else {
			fmt.Printf("✓ Added server %s (%s) to ./absenced.json\n", serverURL, alias)
		}
	}

	// Open browser to the sign-in page
	loginURL := fmt.Sprintf("%s/login", serverURL)
	if !opts.skipBrowser {
		fmt.Printf("\nOpening sign-in page at %s...\n", loginURL)

		if err := openBrowser(loginURL); err != nil {
			fmt.Printf("⚠ Could not open browser automatically: %v\n", err)
			fmt.Printf("Please visit: %s\n", loginURL)
		}
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Create an account or sign in from your browser")
	fmt.Println("  2. Run 'absenced login' to authenticate this machine")

	return nil
}
