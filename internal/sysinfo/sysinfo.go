package sysinfo

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Metrics represents host metrics for the dev details endpoint
type Metrics struct {
	CPUCount        int     `json:"cpu_count"`
	MemoryTotalGB   float64 `json:"memory_total_gb"`
	MemoryUsedGB    float64 `json:"memory_used_gb"`
	MemoryFreeGB    float64 `json:"memory_free_gb"`
	DiskTotalGB     float64 `json:"disk_total_gb"`
	DiskUsedGB      float64 `json:"disk_used_gb"`
	DiskAvailableGB float64 `json:"disk_available_gb"`
	DiskUsedPercent float64 `json:"disk_used_percent"`
}

// GetMetrics returns host metrics. Disk figures describe the filesystem
// holding dataPath, which is where the SQLite database lives.
func GetMetrics(ctx context.Context, dataPath string) (Metrics, error) {
	metrics := Metrics{
		CPUCount: runtime.NumCPU(),
	}

	// Get memory info
	if err := getMemoryInfo(&metrics); err != nil {
		return metrics, fmt.Errorf("failed to get memory info: %w", err)
	}

	// Get disk info for the data filesystem
	if err := getDiskInfo(ctx, dataPath, &metrics); err != nil {
		return metrics, fmt.Errorf("failed to get disk info: %w", err)
	}

	return metrics, nil
}

// getMemoryInfo reads memory information from /proc/meminfo
func getMemoryInfo(metrics *Metrics) error {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return fmt.Errorf("failed to open /proc/meminfo: %w", err)
	}
	defer file.Close()

	var memTotal, memAvailable float64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			memTotal = value / (1024 * 1024) // KB to GB
		case strings.HasPrefix(line, "MemAvailable:"):
			memAvailable = value / (1024 * 1024) // KB to GB
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading /proc/meminfo: %w", err)
	}

	metrics.MemoryTotalGB = memTotal
	metrics.MemoryFreeGB = memAvailable
	metrics.MemoryUsedGB = memTotal - memAvailable

	return nil
}

// getDiskInfo retrieves filesystem usage for the given path via df
func getDiskInfo(ctx context.Context, path string, metrics *Metrics) error {
	if path == "" {
		path = "."
	}

	// POSIX output: filesystem, 1K-blocks, used, available, capacity, mount
	cmd := exec.CommandContext(ctx, "df", "-Pk", path)
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to run df: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) < 2 {
		return fmt.Errorf("unexpected df output format")
	}

	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 4 {
		return fmt.Errorf("unexpected df output format")
	}

	total, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("failed to parse total space: %w", err)
	}
	used, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return fmt.Errorf("failed to parse used space: %w", err)
	}
	available, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return fmt.Errorf("failed to parse available space: %w", err)
	}

	metrics.DiskTotalGB = total / (1024 * 1024)
	metrics.DiskUsedGB = used / (1024 * 1024)
	metrics.DiskAvailableGB = available / (1024 * 1024)
	if metrics.DiskTotalGB > 0 {
		metrics.DiskUsedPercent = (metrics.DiskUsedGB / metrics.DiskTotalGB) * 100
	}

	return nil
}
