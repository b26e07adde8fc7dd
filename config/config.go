package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the capture pipeline and app behavior.
// Fields may be loaded from a JSON or YAML file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug" yaml:"debug"`
	// Log level name: debug, info, warn or error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Output canvas. Fixed for the lifetime of the process.
	CanvasWidth  int `json:"canvas_width" yaml:"canvas_width"`
	CanvasHeight int `json:"canvas_height" yaml:"canvas_height"`

	// Target duration of one capture iteration.
	FrameIntervalMS int `json:"frame_interval_ms" yaml:"frame_interval_ms"`
	// Capacity of the frame channel between loop and consumer.
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// Preview server listen address. Empty disables the preview.
	PreviewAddr string `json:"preview_addr" yaml:"preview_addr"`
	// Interval for capture/runtime stats logging in debug mode.
	StatsIntervalMS int `json:"stats_interval_ms" yaml:"stats_interval_ms"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:           false,
		LogLevel:        "info",
		CanvasWidth:     480,
		CanvasHeight:    270,
		FrameIntervalMS: 10,
		QueueSize:       1,
		PreviewAddr:     "",
		StatsIntervalMS: 2000,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.CanvasWidth <= 0 || c.CanvasWidth > 0xFFFF {
		c.CanvasWidth = 480
	}
	if c.CanvasHeight <= 0 || c.CanvasHeight > 0xFFFF {
		c.CanvasHeight = 270
	}
	if c.FrameIntervalMS <= 0 {
		c.FrameIntervalMS = 10
	}
	if c.QueueSize < 0 {
		c.QueueSize = 0
	}
	if c.StatsIntervalMS <= 0 {
		c.StatsIntervalMS = 2000
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		c.LogLevel = "info"
		return err
	}
	return nil
}

// FrameInterval returns the configured pacing interval.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// StatsInterval returns the debug logging interval.
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalMS) * time.Millisecond
}

// SetFPS derives the frame interval from a frames-per-second value.
func (c *Config) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.FrameIntervalMS = max(1, 1000/fps)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", name)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load attempts to read configuration from the given path. YAML is used for
// .yaml/.yml files, JSON otherwise. If the file does not exist it returns
// DefaultConfig(). On decode error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := decode(f, isYAML(path), cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(r io.Reader, asYAML bool, cfg *Config) error {
	if asYAML {
		err := yaml.NewDecoder(r).Decode(cfg)
		if err == io.EOF {
			// empty file keeps defaults
			return nil
		}
		return err
	}
	return json.NewDecoder(r).Decode(cfg)
}

// Save writes the configuration to the given path, choosing the format from
// the extension like Load.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
