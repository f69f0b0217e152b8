package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/veil/internal/log"
)

// DefaultConfigTemplate returns the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# veil configuration

# Default exit animation duration in milliseconds. Overlays that declare
# their own animation_delay_ms override this.
animation_delay_ms: 200

ui:
  # Mouse tracking lets overlays close when clicking outside their box.
  mouse_enabled: true
  # How long a toast stays on screen before auto-dismissing.
  toast_duration_ms: 3000

# Development options
# debug:
#   log_file: /tmp/veil-debug.log   # Enable debug logging to this path
#   disable_frame_cache: false      # Re-render every overlay box each frame

# Overlay presets registered at startup.
# All boolean flags default to true when omitted.
# overlays:
#   - id: welcome
#     content: "Welcome!"
#     initially_visible: true
#     animation_delay_ms: 150
#   - id: status
#     portal: toasts        # stacked in the top right corner
#     lock_scroll: false
#     backdrop: false

# Overlay lifecycle tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/veil/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
