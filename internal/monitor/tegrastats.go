package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrDiagnosticUnavailable marks a board diagnostic that could not be run or
// produced nothing usable. It never aborts a pipeline run.
var ErrDiagnosticUnavailable = errors.New("diagnostic unavailable")

// Tegrastats runs the Jetson tegrastats tool for a fixed window and keeps the
// last line it printed.
type Tegrastats struct {
	Command string
	Args    []string

	// Duration is how long the tool runs before it is interrupted.
	Duration time.Duration

	// Env is appended to the current environment.
	Env []string
}

// DefaultTegrastats samples once a second for two seconds.
func DefaultTegrastats() *Tegrastats {
	return &Tegrastats{
		Command:  "tegrastats",
		Args:     []string{"--interval", "1000"},
		Duration: 2 * time.Second,
	}
}

// Run starts the tool, lets it run for Duration, interrupts it (killing it a
// second later if it ignores the signal) and returns the last non-empty line.
// Errors wrap ErrDiagnosticUnavailable.
func (t *Tegrastats) Run(ctx context.Context) (string, error) {
	window := t.Duration
	if window <= 0 {
		window = 2 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	cmd := exec.CommandContext(runCtx, t.Command, t.Args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = time.Second
	if len(t.Env) > 0 {
		cmd.Env = append(os.Environ(), t.Env...)
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	if err != nil && runCtx.Err() == nil {
		// Failed before the window elapsed: not installed, crashed, or the
		// caller's context was cancelled.
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrDiagnosticUnavailable, t.Command, ctx.Err())
		}
		if stdout.Len() == 0 {
			return "", fmt.Errorf("%w: %s: %v", ErrDiagnosticUnavailable, t.Command, err)
		}
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDiagnosticUnavailable, t.Command, ctx.Err())
	}

	line := lastLine(stdout.String())
	if line == "" {
		return "", fmt.Errorf("%w: %s produced no output", ErrDiagnosticUnavailable, t.Command)
	}
	return line, nil
}

func lastLine(out string) string {
	lines := strings.Split(out, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// CoreStat is one CPU core from the CPU [...] block.
type CoreStat struct {
	Online  bool    `json:"online"`
	LoadPct float64 `json:"load_pct"`
	FreqMHz int     `json:"freq_mhz"`
}

// Sensor is a "name@valueC" temperature reading.
type Sensor struct {
	Name    string  `json:"name"`
	Celsius float64 `json:"celsius"`
}

// Rail is a power rail reading, current/average in milliwatts.
type Rail struct {
	Name      string `json:"name"`
	CurrentMW int    `json:"current_mw"`
	AverageMW int    `json:"average_mw"`
}

// BoardStats is the parsed form of one tegrastats line. Fields the line does
// not contain stay zero; the Has* flags tell absent from zero.
type BoardStats struct {
	RAMUsedMB  int  `json:"ram_used_mb"`
	RAMTotalMB int  `json:"ram_total_mb"`
	HasRAM     bool `json:"has_ram"`

	SwapUsedMB  int  `json:"swap_used_mb"`
	SwapTotalMB int  `json:"swap_total_mb"`
	HasSwap     bool `json:"has_swap"`

	Cores []CoreStat `json:"cores"`

	EMCPct     float64 `json:"emc_pct"`
	HasEMC     bool    `json:"has_emc"`
	GPUPct     float64 `json:"gpu_pct"`
	GPUFreqMHz int     `json:"gpu_freq_mhz"`
	HasGPU     bool    `json:"has_gpu"`

	Temperatures []Sensor `json:"temperatures"`
	Rails        []Rail   `json:"rails"`
}

// RAMPercent returns used RAM as a percentage of total, 0 when unknown.
func (b *BoardStats) RAMPercent() float64 {
	if b.RAMTotalMB == 0 {
		return 0
	}
	return 100 * float64(b.RAMUsedMB) / float64(b.RAMTotalMB)
}

// MaxTemperature returns the hottest sensor, ignoring the -256C placeholder
// tegrastats prints for sensors that are powered off.
func (b *BoardStats) MaxTemperature() (Sensor, bool) {
	var hottest Sensor
	found := false
	for _, s := range b.Temperatures {
		if s.Celsius <= -100 {
			continue
		}
		if !found || s.Celsius > hottest.Celsius {
			hottest, found = s, true
		}
	}
	return hottest, found
}

var (
	ramRe  = regexp.MustCompile(`\bRAM (\d+)/(\d+)MB`)
	swapRe = regexp.MustCompile(`\bSWAP (\d+)/(\d+)MB`)
	cpuRe  = regexp.MustCompile(`\bCPU \[([^\]]*)\]`)
	coreRe = regexp.MustCompile(`^(\d+)%@(\d+)$`)
	emcRe  = regexp.MustCompile(`\bEMC_FREQ (\d+)%`)
	gpuRe  = regexp.MustCompile(`\bGR3D_FREQ (\d+)%(?:@\[?(\d+))?`)
	tempRe = regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9_]*)@(-?\d+(?:\.\d+)?)C\b`)
	railRe = regexp.MustCompile(`\b((?:POM|VDD)_[A-Z0-9_]+) (\d+)(?:mW)?/(\d+)(?:mW)?`)
)

// ParseTegrastats extracts RAM, SWAP, per-core CPU load and frequency, EMC and
// GPU load, temperatures and power rails from one tegrastats line. It returns
// an error wrapping ErrDiagnosticUnavailable if none of them are present.
func ParseTegrastats(line string) (*BoardStats, error) {
	stats := &BoardStats{}
	found := false

	if m := ramRe.FindStringSubmatch(line); m != nil {
		stats.RAMUsedMB, stats.RAMTotalMB, stats.HasRAM = atoi(m[1]), atoi(m[2]), true
		found = true
	}
	if m := swapRe.FindStringSubmatch(line); m != nil {
		stats.SwapUsedMB, stats.SwapTotalMB, stats.HasSwap = atoi(m[1]), atoi(m[2]), true
		found = true
	}
	if m := cpuRe.FindStringSubmatch(line); m != nil {
		for _, field := range strings.Split(m[1], ",") {
			field = strings.TrimSpace(field)
			if cm := coreRe.FindStringSubmatch(field); cm != nil {
				stats.Cores = append(stats.Cores, CoreStat{Online: true, LoadPct: atof(cm[1]), FreqMHz: atoi(cm[2])})
			} else if field == "off" {
				stats.Cores = append(stats.Cores, CoreStat{})
			}
		}
		found = found || len(stats.Cores) > 0
	}
	if m := emcRe.FindStringSubmatch(line); m != nil {
		stats.EMCPct, stats.HasEMC = atof(m[1]), true
		found = true
	}
	if m := gpuRe.FindStringSubmatch(line); m != nil {
		stats.GPUPct, stats.HasGPU = atof(m[1]), true
		if m[2] != "" {
			stats.GPUFreqMHz = atoi(m[2])
		}
		found = true
	}
	for _, m := range tempRe.FindAllStringSubmatch(line, -1) {
		stats.Temperatures = append(stats.Temperatures, Sensor{Name: m[1], Celsius: atof(m[2])})
		found = true
	}
	for _, m := range railRe.FindAllStringSubmatch(line, -1) {
		stats.Rails = append(stats.Rails, Rail{Name: m[1], CurrentMW: atoi(m[2]), AverageMW: atoi(m[3])})
		found = true
	}

	if !found {
		return nil, fmt.Errorf("%w: unrecognized tegrastats output %q", ErrDiagnosticUnavailable, line)
	}
	return stats, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
