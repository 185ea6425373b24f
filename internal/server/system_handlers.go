package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/absenced-dev/absenced/internal/models"
	"github.com/absenced-dev/absenced/internal/sysinfo"
)

// SystemInfoResponse contains host and database information
type SystemInfoResponse struct {
	Version  string          `json:"version"`
	Host     sysinfo.Metrics `json:"host"`
	Database DatabaseInfo    `json:"database"`
}

// DatabaseInfo contains SQLite database information
type DatabaseInfo struct {
	Path      string  `json:"path"`
	SizeMB    float64 `json:"size_mb"`
	Users     int64   `json:"users"`
	Trips     int64   `json:"trips"`
	Snapshots int64   `json:"snapshots"`
}

// requireDevDetails hides the diagnostics and update endpoints unless the
// deployment opted in. Every signed-in user can reach /api, so these
// cannot be open by default.
func (s *Server) requireDevDetails(c *gin.Context) bool {
	if !s.config.Server.DevDetails {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return false
	}
	return true
}

// @Summary Get host and database information
// @Description Returns host metrics (CPU, memory, disk) and database row counts. Enabled by SHOW_DEV_DETAILS.
// @Tags system
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SystemInfoResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/system/info [get]
func (s *Server) getSystemInfo(c *gin.Context) {
	if !s.requireDevDetails(c) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hostMetrics, err := sysinfo.GetMetrics(ctx, s.config.Database.URL)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get host metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get host metrics: %v", err)})
		return
	}

	response := SystemInfoResponse{
		Version: s.version,
		Host:    hostMetrics,
		Database: DatabaseInfo{
			Path: s.config.Database.URL,
		},
	}

	if info, err := os.Stat(s.config.Database.URL); err == nil {
		response.Database.SizeMB = float64(info.Size()) / (1024 * 1024)
	}

	// Row counts are informational; skip them quietly on error
	s.db.WithContext(ctx).Model(&models.UserProfile{}).Count(&response.Database.Users)
	s.db.WithContext(ctx).Model(&models.Trip{}).Count(&response.Database.Trips)
	s.db.WithContext(ctx).Model(&models.EligibilitySnapshot{}).Count(&response.Database.Snapshots)

	c.JSON(http.StatusOK, response)
}

// LatestVersionResponse contains the latest available version from GitHub
type LatestVersionResponse struct {
	LatestVersion   string `json:"latest_version"`
	CurrentVersion  string `json:"current_version"`
	UpdateAvailable bool   `json:"update_available"`
}

// fetchLatestVersion asks the GitHub API for the newest release tag.
func (s *Server) fetchLatestVersion(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "curl", "-sL", "https://api.github.com/repos/absenced-dev/absenced/releases/latest")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to fetch latest release: %w", err)
	}

	cmd = exec.CommandContext(ctx, "bash", "-c", fmt.Sprintf("echo '%s' | jq -r '.tag_name'", string(output)))
	latestVersionBytes, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to parse release response: %w", err)
	}

	return strings.TrimSpace(string(latestVersionBytes)), nil
}

// @Summary Get latest version from GitHub releases
// @Description Checks GitHub API for the latest release. Enabled by SHOW_DEV_DETAILS.
// @Tags system
// @Produce json
// @Security BearerAuth
// @Success 200 {object} LatestVersionResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/system/latest-version [get]
func (s *Server) getLatestVersion(c *gin.Context) {
	if !s.requireDevDetails(c) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	latestVersion, err := s.fetchLatestVersion(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check for updates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check for updates"})
		return
	}

	currentVersion := s.version

	// Compare versions (simple string comparison for now)
	updateAvailable := latestVersion != "" && latestVersion != "null" && latestVersion != currentVersion

	c.JSON(http.StatusOK, LatestVersionResponse{
		LatestVersion:   latestVersion,
		CurrentVersion:  currentVersion,
		UpdateAvailable: updateAvailable,
	})
}

// @Summary Update server to latest version
// @Description Downloads and installs the latest release, then restarts services. Enabled by SHOW_DEV_DETAILS.
// @Tags system
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/system/update [post]
func (s *Server) updateServer(c *gin.Context) {
	if !s.requireDevDetails(c) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	latestVersion, err := s.fetchLatestVersion(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check for updates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check for updates"})
		return
	}

	if latestVersion == s.version {
		c.JSON(http.StatusOK, gin.H{
			"message": "Already on latest version",
			"version": s.version,
		})
		return
	}

	// Trigger update in background (non-blocking)
	go s.performUpdate(latestVersion)

	c.JSON(http.StatusOK, gin.H{
		"message":         "Update initiated - server will restart in a few seconds",
		"current_version": s.version,
		"new_version":     latestVersion,
	})
}

// performUpdate downloads and installs the latest release
func (s *Server) performUpdate(newVersion string) {
	s.logger.Info().Str("current_version", s.version).Str("new_version", newVersion).Msg("Starting server update")

	// Create update script
	updateScript := `#!/bin/bash
set -euo pipefail

# Log everything to a file
exec > >(tee /var/log/absenced-update.log) 2>&1

echo "=== Absenced Update Script Started at $(date) ==="

GITHUB_REPO="absenced-dev/absenced"
ABSENCED_ARCH="amd64"
BUNDLE_NAME="absenced-linux-${ABSENCED_ARCH}.tar.gz"
RELEASE_TAG="%s"
DOWNLOAD_URL="https://github.com/${GITHUB_REPO}/releases/download/${RELEASE_TAG}/${BUNDLE_NAME}"
CHECKSUM_URL="https://github.com/${GITHUB_REPO}/releases/download/${RELEASE_TAG}/${BUNDLE_NAME}.sha256"

echo "Downloading Absenced ${RELEASE_TAG}..."
cd /tmp
curl -fsSL -o "${BUNDLE_NAME}" "${DOWNLOAD_URL}"
curl -fsSL -o "${BUNDLE_NAME}.sha256" "${CHECKSUM_URL}"

echo "Verifying checksum..."
if ! sha256sum -c "${BUNDLE_NAME}.sha256"; then
    echo "ERROR: Checksum verification failed!"
    rm -f "${BUNDLE_NAME}" "${BUNDLE_NAME}.sha256"
    exit 1
fi

echo "Extracting bundle..."
tar -xzf "${BUNDLE_NAME}"

# The bundle always extracts to absenced-{arch} format
BUNDLE_DIR="absenced-${ABSENCED_ARCH}"
echo "Using bundle directory: ${BUNDLE_DIR}"

if [ ! -d "${BUNDLE_DIR}" ]; then
    echo "ERROR: Bundle directory ${BUNDLE_DIR} not found!"
    echo "Contents of /tmp:"
    ls -la /tmp/ | grep absenced
    exit 1
fi

echo "Stopping services..."
systemctl stop absenced-server absenced-worker

echo "Installing binaries..."
install -m 755 "${BUNDLE_DIR}/server" /usr/local/bin/absenced-server
install -m 755 "${BUNDLE_DIR}/worker" /usr/local/bin/absenced-worker

echo "Restarting services..."
systemctl daemon-reload
systemctl start absenced-server absenced-worker
systemctl restart caddy

echo "Cleanup..."
cd /
rm -rf /tmp/absenced-* /tmp/"${BUNDLE_NAME}" /tmp/"${BUNDLE_NAME}.sha256"

echo "Update complete to ${RELEASE_TAG} at $(date)"
`

	// Write script to /run directory
	// Cannot use /tmp or /var/tmp because the service has PrivateTmp=true
	// which creates private namespaces for both, making files inaccessible to systemd-run
	// /run is not affected by PrivateTmp and is the standard location for runtime files
	scriptContent := fmt.Sprintf(updateScript, newVersion)
	scriptPath := "/run/absenced-update.sh"
	if err := os.WriteFile(scriptPath, []byte(scriptContent), 0755); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create update script")
		return
	}

	// Execute update script detached from this process so it survives server shutdown
	s.logger.Info().Msg("Executing update script...")
	// Use systemd-run to run the update script as a separate transient unit
	// This ensures the script continues running even after absenced-server is stopped
	// Use timestamp to create unique unit name to avoid conflicts
	unitName := fmt.Sprintf("absenced-update-%d", time.Now().Unix())
	cmd := exec.Command("systemd-run", "--unit="+unitName, "--no-block", "bash", scriptPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		s.logger.Error().Err(err).Str("output", string(output)).Msg("Failed to start update process")
	} else {
		s.logger.Info().Str("output", string(output)).Msg("Update process started successfully")
	}
}
