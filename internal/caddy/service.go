// Package caddy generates the reverse-proxy Caddyfile and applies it with a
// zero-downtime reload. It shells out to the caddy binary installed on the
// host, so it only works on deployed servers.
package caddy

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"text/template"

	"github.com/rs/zerolog"
)

const (
	// CaddyfilePath is the location of the Caddyfile on disk
	CaddyfilePath = "/etc/caddy/Caddyfile"

	// CaddyfileTemplate is the template for generating Caddyfile
	CaddyfileTemplate = `# Absenced reverse proxy
{
    # Global options
    # Admin API on localhost only (required for zero-downtime reloads)
    admin localhost:2019
}

# HTTP to HTTPS redirect
:80 {
    redir https://{host}{uri} permanent
}

# HTTPS configuration
{{if .Domain}}{{.Domain}}{{else}}:443{{end}} {
    {{if .Domain}}
    # Let's Encrypt with custom domain
    tls {{.LetsEncryptEmail}}
    {{else}}
    # Self-signed certificate (internal CA)
    tls internal
    {{end}}

    # Logging (to stdout, captured by systemd journal)
    log {
        format json
    }

    # Security headers on every response
    header {
        X-Content-Type-Options "nosniff"
        X-Frame-Options "DENY"
        Referrer-Policy "strict-origin-when-cross-origin"
        Strict-Transport-Security "max-age=31536000; includeSubDomains"
    }

    # The Go server renders all pages and the JSON API
    reverse_proxy localhost:{{.UpstreamPort}}

    # Error handling
    handle_errors {
        respond "{http.error.status_code} {http.error.status_text}"
    }
}
`
)

// Service handles Caddyfile generation and reload operations
type Service struct {
	logger zerolog.Logger
	tmpl   *template.Template
}

// Config represents the configuration needed to generate a Caddyfile
type Config struct {
	Domain           string // Custom domain (e.g., "absences.example.com"), empty for self-signed
	LetsEncryptEmail string // Email for Let's Encrypt, required if Domain is set
	UpstreamPort     string // Port the application server listens on
}

// NewService creates a new Caddy service
func NewService(logger zerolog.Logger) (*Service, error) {
	tmpl, err := template.New("caddyfile").Parse(CaddyfileTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Caddyfile template: %w", err)
	}

	return &Service{
		logger: logger,
		tmpl:   tmpl,
	}, nil
}

// Render produces the Caddyfile content for cfg without touching disk.
func (s *Service) Render(cfg Config) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, cfg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GenerateAndReload writes a new Caddyfile and reloads Caddy. The file is
// staged and validated before it replaces the live config, so a bad render
// never takes the proxy down.
func (s *Service) GenerateAndReload(cfg Config) error {
	if cfg.Domain != "" && cfg.LetsEncryptEmail == "" {
		return fmt.Errorf("lets_encrypt_email is required when domain is set")
	}
	if cfg.UpstreamPort == "" {
		cfg.UpstreamPort = "8080"
	}

	content, err := s.Render(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate Caddyfile: %w", err)
	}

	tmpPath := CaddyfilePath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write temporary Caddyfile: %w", err)
	}

	if err := caddyRun("validate", tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("generated Caddyfile is invalid: %w", err)
	}

	if err := os.Rename(tmpPath, CaddyfilePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move Caddyfile to final location: %w", err)
	}

	s.logger.Info().
		Str("domain", cfg.Domain).
		Str("path", CaddyfilePath).
		Msg("Caddyfile generated successfully")

	if err := caddyRun("reload", CaddyfilePath); err != nil {
		return fmt.Errorf("failed to reload Caddy: %w", err)
	}

	s.logger.Info().Msg("Caddy reloaded successfully")
	return nil
}

// caddyRun invokes a caddy subcommand against the given config file.
func caddyRun(subcommand, configPath string) error {
	cmd := exec.Command("caddy", subcommand, "--config", configPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("caddy %s failed: %w\nOutput: %s", subcommand, err, string(output))
	}
	return nil
}
