package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/gazekit/gazekit/pkg/schedule"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSessionName validates a recording session name. Path separators
// are allowed (they create subdirectories under the recordings root) but
// traversal is not.
func (v *Validator) ValidateSessionName(name string) error {
	if name == "" {
		return nil // Auto-generated date name
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("session name cannot contain '..'")
	}
	if strings.Contains(name, "\x00") {
		return fmt.Errorf("session name cannot contain null bytes")
	}
	return nil
}

// ValidateThresholds validates the disk-space admission thresholds
func (v *Validator) ValidateThresholds(warnGB, abortGB float64) error {
	if warnGB <= 0 {
		return fmt.Errorf("warn threshold must be positive, got %g", warnGB)
	}
	if abortGB <= 0 {
		return fmt.Errorf("abort threshold must be positive, got %g", abortGB)
	}
	if abortGB > warnGB {
		return fmt.Errorf("abort threshold (%g GB) cannot exceed warn threshold (%g GB)", abortGB, warnGB)
	}
	return nil
}

// ValidateTickInterval validates the tick interval
func (v *Validator) ValidateTickInterval(ms int) error {
	if ms <= 0 {
		return fmt.Errorf("tick interval must be positive, got %d ms", ms)
	}
	return nil
}

// ValidateAddr validates a host:port listen address
func (v *Validator) ValidateAddr(addr string) error {
	if addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateSessionName(cfg.Recorder.SessionName); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateThresholds(cfg.Recorder.WarnThresholdGB, cfg.Recorder.AbortThresholdGB); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateTickInterval(cfg.Recorder.TickIntervalMs); err != nil {
		errors = append(errors, err)
	}

	if cfg.Remote.Enabled {
		if err := v.ValidateAddr(cfg.Remote.Addr); err != nil {
			errors = append(errors, fmt.Errorf("remote: %w", err))
		}
	}
	if cfg.Metrics.Enabled {
		if err := v.ValidateAddr(cfg.Metrics.Addr); err != nil {
			errors = append(errors, fmt.Errorf("metrics: %w", err))
		}
	}

	// Validate triggers
	for i, trigger := range cfg.Triggers {
		if trigger.ID == "" {
			errors = append(errors, fmt.Errorf("trigger %d: id is required", i))
		}
		if trigger.Action != schedule.ActionStart && trigger.Action != schedule.ActionStop {
			errors = append(errors, fmt.Errorf("trigger %d (%s): invalid action %q", i, trigger.ID, trigger.Action))
		}
		if _, err := schedule.NextRun(trigger.Schedule); err != nil {
			errors = append(errors, fmt.Errorf("trigger %d (%s): %w", i, trigger.ID, err))
		}
	}

	// Validate logging
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
