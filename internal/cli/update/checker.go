package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	releasesAPIURL  = "https://api.github.com/repos/absenced-dev/absenced/releases/latest"
	downloadBaseURL = "https://github.com/absenced-dev/absenced/releases/download"
	userAgent       = "absenced-cli"
)

// LatestVersion asks GitHub for the newest published release tag.
func LatestVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesAPIURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to parse release response: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("latest release has no tag name")
	}

	return release.TagName, nil
}

// IsNewer reports whether latest should replace current. Dev builds always
// count as outdated so development binaries see the update notice.
func IsNewer(current, latest string) bool {
	current = strings.TrimPrefix(current, "v")
	latest = strings.TrimPrefix(latest, "v")

	if current == "dev" {
		return true
	}

	return latest != "" && current != latest
}

// PrintUpdateNotification tells the user when a newer release exists. Errors
// are swallowed; a failed check must never break the command being run.
func PrintUpdateNotification(currentVersion string) {
	latest, err := LatestVersion(context.Background())
	if err != nil {
		return
	}

	if IsNewer(currentVersion, latest) {
		fmt.Fprintf(os.Stderr, "New version %s -> %s. Run: absenced update\n\n", currentVersion, latest)
	}
}
