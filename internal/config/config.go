package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gazekit/gazekit/pkg/schedule"
)

// Config represents the main gazekit configuration
type Config struct {
	// Recorder
	Recorder RecorderConfig `json:"recorder" mapstructure:"recorder"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Remote notification bridge
	Remote RemoteConfig `json:"remote" mapstructure:"remote"`

	// Metrics endpoint
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Scheduled recording triggers
	Triggers []schedule.Trigger `json:"triggers" mapstructure:"triggers"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// RecorderConfig holds the recording session configuration
type RecorderConfig struct {
	// SessionName names the session directory; empty means an auto-generated
	// date-based name
	SessionName string `json:"session_name" mapstructure:"session_name"`

	// RootDir is the recordings root; empty means <data_dir>/recordings
	RootDir string `json:"root_dir" mapstructure:"root_dir"`

	// UserDir holds calibration and surface definition files; empty means
	// <data_dir>/user
	UserDir string `json:"user_dir" mapstructure:"user_dir"`

	RecordEye bool `json:"record_eye" mapstructure:"record_eye"`

	// RawJPEG selects the low-CPU JPEG passthrough writer when the capture
	// source supports it
	RawJPEG bool `json:"raw_jpeg" mapstructure:"raw_jpeg"`

	UserInfo map[string]string `json:"user_info" mapstructure:"user_info"`

	WarnThresholdGB  float64 `json:"warn_threshold_gb" mapstructure:"warn_threshold_gb"`
	AbortThresholdGB float64 `json:"abort_threshold_gb" mapstructure:"abort_threshold_gb"`

	TickIntervalMs int `json:"tick_interval_ms" mapstructure:"tick_interval_ms"`
}

// TickInterval returns the tick interval as a duration
func (c RecorderConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `json:"level" mapstructure:"level"`
	File     string `json:"file" mapstructure:"file"`
	MaxSize  int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge   int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// RemoteConfig holds the websocket notification bridge configuration
type RemoteConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Recorder: RecorderConfig{
			RecordEye: true,
			RawJPEG:   true,
			UserInfo: map[string]string{
				"name":             "",
				"additional_field": "change_me",
			},
			WarnThresholdGB:  5.0,
			AbortThresholdGB: 1.0,
			TickIntervalMs:   33,
		},
		Logging: LoggingConfig{
			Level:   "info",
			MaxSize: 100,
			MaxAge:  7,
		},
		Remote: RemoteConfig{
			Addr: "127.0.0.1:8537",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9537",
		},
	}
}

// ResolvePaths fills empty path fields from the data directory
func (c *Config) ResolvePaths() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".gazekit")
	}
	if c.Recorder.RootDir == "" {
		c.Recorder.RootDir = filepath.Join(c.DataDir, "recordings")
	}
	if c.Recorder.UserDir == "" {
		c.Recorder.UserDir = filepath.Join(c.DataDir, "user")
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(c.DataDir, "gazekit.log")
	}
	return nil
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
