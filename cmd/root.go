package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/veil/internal/config"
	"github.com/zjrosen/veil/internal/log"
	"github.com/zjrosen/veil/internal/tracing"
	"github.com/zjrosen/veil/internal/ui/playground"
	"github.com/zjrosen/veil/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "veil",
	Short:   "Overlay lifecycle toolkit for terminal applications",
	Long:    `Veil manages overlay surfaces in terminal applications: animation-aware open/close transitions, z-order, scroll locking, and portal routing. Running it launches the interactive demo.`,
	Version: version,
	RunE:    runDemo,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/veil/config.yaml)")
	rootCmd.Flags().Bool("no-mouse", false,
		"disable mouse tracking (outside-click close will not work)")
	rootCmd.Flags().String("debug-log", "",
		"write debug logs to this file")

	_ = viper.BindPFlag("debug.log_file", rootCmd.Flags().Lookup("debug-log"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("animation_delay_ms", defaults.AnimationDelayMs)
	viper.SetDefault("ui.mouse_enabled", defaults.UI.MouseEnabled)
	viper.SetDefault("ui.toast_duration_ms", defaults.UI.ToastDurationMs)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .veil/config.yaml (current directory)
		// 2. ~/.config/veil/config.yaml (user config)
		if _, err := os.Stat(".veil/config.yaml"); err == nil {
			viper.SetConfigFile(".veil/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "veil"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// Missing config is fine, run on defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runDemo(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if noMouse, _ := cmd.Flags().GetBool("no-mouse"); noMouse {
		cfg.UI.MouseEnabled = false
	}

	if cfg.Debug.LogFile != "" {
		cleanup, err := log.Init(cfg.Debug.LogFile)
		if err != nil {
			return fmt.Errorf("initializing debug log: %w", err)
		}
		defer cleanup()
	}

	zone.NewGlobal()

	model := playground.New(cfg)

	provider, err := tracing.NewProvider(cfg.Tracing.ToTracing())
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := tracing.NewRecorder(provider)
	go recorder.Run(ctx, model.Registry().Subscribe(ctx))

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	program := tea.NewProgram(model, opts...)

	if path := viper.ConfigFileUsed(); path != "" {
		stop, err := watchConfig(path, program)
		if err != nil {
			log.ErrorErr(log.CatConfig, "config watch failed", err, "path", path)
		} else {
			defer stop()
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// watchConfig reloads the config file on change and pushes the result into
// the running program. Returns a stop function.
func watchConfig(path string, program *tea.Program) (func(), error) {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return nil, err
	}

	onChange, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, err
	}

	go func() {
		for range onChange {
			if err := viper.ReadInConfig(); err != nil {
				log.ErrorErr(log.CatConfig, "config reload failed", err, "path", path)
				continue
			}
			var next config.Config
			if err := viper.Unmarshal(&next); err != nil {
				log.ErrorErr(log.CatConfig, "config reload failed", err, "path", path)
				continue
			}
			if err := next.Validate(); err != nil {
				log.ErrorErr(log.CatConfig, "reloaded config invalid, keeping current", err)
				continue
			}
			log.Info(log.CatConfig, "config reloaded", "path", path)
			program.Send(playground.ConfigReloadedMsg{Cfg: next})
		}
	}()

	return func() { _ = w.Stop() }, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
