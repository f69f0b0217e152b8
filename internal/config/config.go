// Package config provides configuration types and defaults for veil.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/veil/internal/registry"
	"github.com/zjrosen/veil/internal/tracing"
)

// Config holds all configuration options for veil.
type Config struct {
	// AnimationDelayMs is the default exit animation duration applied to
	// overlays that don't declare their own.
	AnimationDelayMs int `mapstructure:"animation_delay_ms"`

	UI       UIConfig        `mapstructure:"ui"`
	Debug    DebugConfig     `mapstructure:"debug"`
	Overlays []OverlayConfig `mapstructure:"overlays"`
	Tracing  TracingConfig   `mapstructure:"tracing"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	// MouseEnabled turns on mouse tracking so overlays can close on
	// outside clicks.
	MouseEnabled bool `mapstructure:"mouse_enabled"`

	// ToastDurationMs is how long a toast stays before auto-closing.
	ToastDurationMs int `mapstructure:"toast_duration_ms"`
}

// DebugConfig holds development options.
type DebugConfig struct {
	// LogFile enables debug logging to the given path.
	LogFile string `mapstructure:"log_file"`

	// DisableFrameCache re-renders every overlay box on every frame.
	DisableFrameCache bool `mapstructure:"disable_frame_cache"`
}

// OverlayConfig declares an overlay preset registered at startup.
type OverlayConfig struct {
	ID                  string `mapstructure:"id"`
	Portal              string `mapstructure:"portal"`
	Content             string `mapstructure:"content"`
	Backdrop            *bool  `mapstructure:"backdrop"`              // nil = true
	LockScroll          *bool  `mapstructure:"lock_scroll"`           // nil = true
	CloseOnEscape       *bool  `mapstructure:"close_on_escape"`       // nil = true
	CloseOnOutsideClick *bool  `mapstructure:"close_on_outside_click"` // nil = true
	CloseOnRouteChange  *bool  `mapstructure:"close_on_route_change"`  // nil = true
	AnimationDelayMs    int    `mapstructure:"animation_delay_ms"`
	InitiallyVisible    bool   `mapstructure:"initially_visible"`
}

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	// Enabled controls whether lifecycle tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/veil/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ToTracing converts to the tracing subsystem's config, filling defaults.
func (t TracingConfig) ToTracing() tracing.Config {
	cfg := tracing.DefaultConfig()
	cfg.Enabled = t.Enabled
	if t.Exporter != "" {
		cfg.Exporter = t.Exporter
	}
	cfg.FilePath = t.FilePath
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultTracesFilePath()
	}
	if t.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = t.OTLPEndpoint
	}
	if t.SampleRate > 0 {
		cfg.SampleRate = t.SampleRate
	}
	return cfg
}

// RegistryConfig converts an overlay preset to a registry entry. The static
// content string becomes the entry's renderer.
func (o OverlayConfig) RegistryConfig() registry.Config {
	content := o.Content
	return registry.Config{
		ID:                  o.ID,
		PortalTarget:        o.Portal,
		HasBackdrop:         o.Backdrop,
		LockScroll:          o.LockScroll,
		CloseOnEscape:       o.CloseOnEscape,
		CloseOnOutsideClick: o.CloseOnOutsideClick,
		CloseOnRouteChange:  o.CloseOnRouteChange,
		AnimationDelay:      time.Duration(o.AnimationDelayMs) * time.Millisecond,
		InitiallyVisible:    o.InitiallyVisible,
		Content:             func() string { return content },
	}
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		AnimationDelayMs: 200,
		UI: UIConfig{
			MouseEnabled:    true,
			ToastDurationMs: 3000,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/veil/traces/traces.jsonl or empty string if home dir
// unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "veil", "traces", "traces.jsonl")
}

// ValidateOverlays checks overlay presets for errors. Returns nil if presets
// are valid or empty.
func ValidateOverlays(overlays []OverlayConfig) error {
	seen := make(map[string]bool, len(overlays))
	for i, o := range overlays {
		if o.ID == "" {
			return fmt.Errorf("overlay %d: id is required", i)
		}
		if seen[o.ID] {
			return fmt.Errorf("overlay %d: duplicate id %q", i, o.ID)
		}
		seen[o.ID] = true
		if o.AnimationDelayMs < 0 {
			return fmt.Errorf("overlay %d (%s): animation_delay_ms must be >= 0", i, o.ID)
		}
	}
	return nil
}

// Validate checks the whole configuration for errors.
func (c Config) Validate() error {
	if c.AnimationDelayMs < 0 {
		return fmt.Errorf("animation_delay_ms must be >= 0")
	}
	if err := ValidateOverlays(c.Overlays); err != nil {
		return err
	}
	switch c.Tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1, got %v", c.Tracing.SampleRate)
	}
	return nil
}

// AnimationDelay returns the default exit duration as a time.Duration.
func (c Config) AnimationDelay() time.Duration {
	return time.Duration(c.AnimationDelayMs) * time.Millisecond
}

// ToastDuration returns the toast auto-close duration.
func (c Config) ToastDuration() time.Duration {
	return time.Duration(c.UI.ToastDurationMs) * time.Millisecond
}
