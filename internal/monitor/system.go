package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryStat is a snapshot of system memory in bytes.
type MemoryStat struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// CPUPercent measures overall CPU utilization across all cores over interval.
// It blocks for the whole interval.
func CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(pct) == 0 {
		return 0, fmt.Errorf("failed to read cpu usage: no samples")
	}
	return pct[0], nil
}

// VirtualMemory returns the current system memory usage.
func VirtualMemory(ctx context.Context) (MemoryStat, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStat{}, fmt.Errorf("failed to read memory usage: %w", err)
	}
	return MemoryStat{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}, nil
}
