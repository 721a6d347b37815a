package editor

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sceneforge/sceneforge/internal/core/history"
)

// Duration wraps time.Duration so YAML can carry values like "150ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds editor configuration
type Config struct {
	// MaxUndoDepth bounds the undo stack; oldest entries are evicted first.
	MaxUndoDepth int `yaml:"max_undo_depth"`
	// MergeWindow is the coalescing window for rapid successive edits.
	MergeWindow Duration `yaml:"merge_window"`
	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `yaml:"log_level"`

	Inspector InspectorConfig `yaml:"inspector"`
}

// InspectorConfig controls the websocket inspector bridge.
type InspectorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig returns the editor's default configuration.
func DefaultConfig() Config {
	return Config{
		MaxUndoDepth: history.DefaultMaxStackSize,
		MergeWindow:  Duration(history.DefaultMergeWindow),
		LogLevel:     "info",
		Inspector: InspectorConfig{
			Enabled: false,
			Addr:    "127.0.0.1:7474",
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MaxUndoDepth <= 0 {
		return cfg, fmt.Errorf("%w: max_undo_depth must be positive", ErrInvalidConfig)
	}
	if cfg.MergeWindow <= 0 {
		return cfg, fmt.Errorf("%w: merge_window must be positive", ErrInvalidConfig)
	}
	return cfg, nil
}
