package diskspace

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
)

// Default admission thresholds in GB.
const (
	DefaultWarnThresholdGB  = 5.0
	DefaultAbortThresholdGB = 1.0
)

// DefaultCheckInterval is the minimum spacing between disk probes.
const DefaultCheckInterval = time.Second

// AvailableGB returns the free space in GB on the volume containing path.
func AvailableGB(path string) (float64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("failed to query disk usage for %s: %w", path, err)
	}
	return float64(usage.Free) / 1e9, nil
}

// Monitor rate-limits disk-space checks so the check frequency is decoupled
// from the tick rate. ShouldCheck returns true at most once per interval.
type Monitor struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewMonitor creates a monitor with a minimum interval between checks.
// Intervals below one second are raised to one second.
func NewMonitor(interval time.Duration) *Monitor {
	if interval < time.Second {
		interval = time.Second
	}
	return &Monitor{
		interval: interval,
		now:      time.Now,
	}
}

// ShouldCheck reports whether enough time has passed since the last check.
func (m *Monitor) ShouldCheck() bool {
	now := m.now()
	if !m.last.IsZero() && now.Sub(m.last) < m.interval {
		return false
	}
	m.last = now
	return true
}
