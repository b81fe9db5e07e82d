package health

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessStats describes the proxy process.
type ProcessStats struct {
	PID        int32   `json:"pid"`
	Goroutines int     `json:"goroutines"`
	CPUPercent float64 `json:"cpu_percent"`
	MemRSS     string  `json:"mem_rss"`
	MemPercent float32 `json:"mem_percent"`
	GoVersion  string  `json:"go_version"`
	OS         string  `json:"os"`
	Arch       string  `json:"arch"`
}

// SystemStats describes the host.
type SystemStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemUsed    string  `json:"mem_used"`
	MemTotal   string  `json:"mem_total"`
	MemPercent float64 `json:"mem_percent"`
}

// humanBytes converts bytes to a human-readable string.
func humanBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// gatherProcessStats collects stats for the running process.
func gatherProcessStats(ctx context.Context) (*ProcessStats, error) {
	pid := int32(os.Getpid())
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, err
	}

	stats := &ProcessStats{
		PID:        pid,
		Goroutines: runtime.NumGoroutine(),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = pct
	}
	if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
		stats.MemRSS = humanBytes(info.RSS)
	}
	if pct, err := proc.MemoryPercentWithContext(ctx); err == nil {
		stats.MemPercent = pct
	}
	return stats, nil
}

// gatherSystemStats collects host CPU and memory usage.
func gatherSystemStats(ctx context.Context) (*SystemStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	stats := &SystemStats{
		MemUsed:    humanBytes(vm.Used),
		MemTotal:   humanBytes(vm.Total),
		MemPercent: vm.UsedPercent,
	}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}
	return stats, nil
}
