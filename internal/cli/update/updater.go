package update

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// releaseAsset returns the published binary name for the current platform.
func releaseAsset() (string, error) {
	supported := map[string]bool{
		"linux/amd64":   true,
		"linux/arm64":   true,
		"darwin/amd64":  true,
		"darwin/arm64":  true,
		"windows/amd64": true,
	}

	platform := runtime.GOOS + "/" + runtime.GOARCH
	if !supported[platform] {
		return "", fmt.Errorf("no prebuilt binary for %s", platform)
	}

	name := fmt.Sprintf("absenced-%s-%s", runtime.GOOS, runtime.GOARCH)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return name, nil
}

// SelfUpdate replaces the running binary with the latest published release.
func SelfUpdate(currentVersion string) error {
	ctx := context.Background()

	latest, err := LatestVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	if !IsNewer(currentVersion, latest) {
		fmt.Printf("Already up to date (version %s)\n", currentVersion)
		return nil
	}

	asset, err := releaseAsset()
	if err != nil {
		return err
	}
	assetURL := fmt.Sprintf("%s/%s/%s", downloadBaseURL, latest, asset)

	fmt.Printf("Updating from %s to %s...\n", currentVersion, latest)
	fmt.Println("Downloading new version...")

	tmpPath, err := download(ctx, assetURL)
	if err != nil {
		return fmt.Errorf("failed to download update: %w", err)
	}
	defer os.Remove(tmpPath)

	fmt.Println("Verifying checksum...")
	if err := verifyChecksum(ctx, tmpPath, assetURL+".sha256"); err != nil {
		return fmt.Errorf("checksum verification failed: %w", err)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate running binary: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("failed to resolve running binary path: %w", err)
	}

	fmt.Println("Installing new version...")
	if err := install(tmpPath, execPath); err != nil {
		return fmt.Errorf("failed to install update: %w", err)
	}

	fmt.Printf("\n✓ Successfully updated to version %s!\n", latest)
	return nil
}

// download fetches url into a temp file and returns the file's path.
func download(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "absenced-update-*")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

// verifyChecksum compares the file's SHA256 against the published sidecar.
func verifyChecksum(ctx context.Context, path, checksumURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checksumURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download checksum (status %d)", resp.StatusCode)
	}

	sidecar, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Sidecar format: "<hex hash>  <filename>"
	fields := strings.Fields(string(sidecar))
	if len(fields) == 0 {
		return fmt.Errorf("empty checksum file")
	}
	want := fields[0]

	got, err := fileSHA256(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("checksum mismatch (expected %s, got %s)", want, got)
	}

	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// install swaps the new binary into place. The replacement is staged next to
// the target so the final rename never crosses filesystems.
func install(newPath, targetPath string) error {
	staged := targetPath + ".new"
	if err := copyFile(newPath, staged); err != nil {
		return fmt.Errorf("failed to stage new binary: %w", err)
	}
	if err := os.Chmod(staged, 0755); err != nil {
		os.Remove(staged)
		return err
	}

	if runtime.GOOS == "windows" {
		// A running executable cannot be overwritten on Windows, but it can
		// be renamed out of the way
		backup := targetPath + ".old"
		os.Remove(backup)
		if err := os.Rename(targetPath, backup); err != nil {
			os.Remove(staged)
			return fmt.Errorf("failed to move current binary aside: %w", err)
		}
		if err := os.Rename(staged, targetPath); err != nil {
			os.Rename(backup, targetPath)
			return fmt.Errorf("failed to install new binary: %w", err)
		}
		fmt.Println("\nNote: Old binary saved as .old - you can delete it manually")
		return nil
	}

	if err := os.Rename(staged, targetPath); err != nil {
		os.Remove(staged)
		return fmt.Errorf("failed to install new binary: %w", err)
	}

	return nil
}

// copyFile writes src's contents to dst, creating or truncating dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
