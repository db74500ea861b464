package utils

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	ProcessRSS    uint64  `json:"process_rss_bytes"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

var startedAt = time.Now()

// GetCPUUsage returns the current CPU usage as a percentage
func GetCPUUsage(ctx context.Context) float64 {
	percentage, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		log.Warn().Err(err).Msg("error getting CPU usage")
		return 0
	}
	if len(percentage) > 0 {
		return percentage[0]
	}
	return 0
}

// GetSystemStats samples host and process figures for the health endpoint.
// Errors degrade to zero values.
func GetSystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		CPUPercent:    GetCPUUsage(ctx),
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryPercent = vm.UsedPercent
	}

	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfoWithContext(ctx); err == nil {
			stats.ProcessRSS = info.RSS
		}
	}

	return stats
}
