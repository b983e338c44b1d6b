package monitor

import (
	"context"
	"strings"
	"time"
)

// BoardSample is the outcome of running the board diagnostic.
type BoardSample struct {
	Available bool        `json:"available"`
	Reason    string      `json:"reason,omitempty"`
	Raw       string      `json:"raw,omitempty"`
	Stats     *BoardStats `json:"stats,omitempty"`
}

// ResourceSample is one point-in-time reading of host resources. It is
// created once per run and not modified afterwards.
type ResourceSample struct {
	Timestamp time.Time `json:"timestamp"`

	CPUPercent float64 `json:"cpu_percent"`
	// CPUError is set when the CPU reading failed; CPUPercent is then 0.
	CPUError string `json:"cpu_error,omitempty"`

	Memory      MemoryStat `json:"memory"`
	MemoryError string     `json:"memory_error,omitempty"`

	Board BoardSample `json:"board"`
}

// Sampler collects ResourceSamples. The zero value is not usable; use NewSampler.
type Sampler struct {
	CPUInterval time.Duration

	// Board is the diagnostic tool; nil disables board sampling.
	Board *Tegrastats

	cpuPercent    func(context.Context, time.Duration) (float64, error)
	virtualMemory func(context.Context) (MemoryStat, error)
	now           func() time.Time
}

// NewSampler returns a sampler reading CPU over cpuInterval (1s when zero)
// and running board for the board statistics.
func NewSampler(cpuInterval time.Duration, board *Tegrastats) *Sampler {
	if cpuInterval <= 0 {
		cpuInterval = time.Second
	}
	return &Sampler{
		CPUInterval:   cpuInterval,
		Board:         board,
		cpuPercent:    CPUPercent,
		virtualMemory: VirtualMemory,
		now:           time.Now,
	}
}

// Memory reads current memory usage.
func (s *Sampler) Memory(ctx context.Context) (MemoryStat, error) {
	return s.virtualMemory(ctx)
}

// Sample reads CPU, memory and board statistics one after another. It never
// fails: each failed reading is recorded in the sample instead.
func (s *Sampler) Sample(ctx context.Context) *ResourceSample {
	sample := &ResourceSample{Timestamp: s.now()}

	if pct, err := s.cpuPercent(ctx, s.CPUInterval); err != nil {
		sample.CPUError = err.Error()
	} else {
		sample.CPUPercent = pct
	}

	if m, err := s.virtualMemory(ctx); err != nil {
		sample.MemoryError = err.Error()
	} else {
		sample.Memory = m
	}

	sample.Board = s.sampleBoard(ctx)
	return sample
}

func (s *Sampler) sampleBoard(ctx context.Context) BoardSample {
	if s.Board == nil {
		return BoardSample{Reason: "board sampling disabled"}
	}
	line, err := s.Board.Run(ctx)
	if err != nil {
		return BoardSample{Reason: reason(err)}
	}
	stats, err := ParseTegrastats(line)
	if err != nil {
		return BoardSample{Raw: line, Reason: reason(err)}
	}
	return BoardSample{Available: true, Raw: line, Stats: stats}
}

// reason strips the sentinel prefix so reports read "tegrastats: executable
// file not found" rather than repeating "diagnostic unavailable".
func reason(err error) string {
	return strings.TrimPrefix(err.Error(), ErrDiagnosticUnavailable.Error()+": ")
}
