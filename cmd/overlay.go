package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/veil/internal/config"
)

var overlayCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Manage overlay presets in the config file",
}

var overlayAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add an overlay preset",
	Long:  `Append an overlay preset to the config file's overlays section. Comments elsewhere in the file are preserved. The preset is registered the next time the demo starts, or immediately if it is already running (the config file is watched).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runOverlayAdd,
}

func init() {
	overlayAddCmd.Flags().String("content", "", "overlay body text")
	overlayAddCmd.Flags().String("portal", "", "compositing layer (empty for the main layer)")
	overlayAddCmd.Flags().Bool("no-backdrop", false, "render without a backdrop")
	overlayAddCmd.Flags().Bool("no-scroll-lock", false, "do not lock background scrolling while open")
	overlayAddCmd.Flags().Int("delay", 0, "animation delay in milliseconds (0 uses the global default)")
	overlayAddCmd.Flags().Bool("visible", false, "open the overlay as soon as it is registered")

	overlayCmd.AddCommand(overlayAddCmd)
	rootCmd.AddCommand(overlayCmd)
}

func runOverlayAdd(cmd *cobra.Command, args []string) error {
	path := viper.ConfigFileUsed()
	if path == "" {
		return fmt.Errorf("no config file found, run `veil init` first")
	}

	preset := config.OverlayConfig{ID: args[0]}
	preset.Content, _ = cmd.Flags().GetString("content")
	preset.Portal, _ = cmd.Flags().GetString("portal")
	preset.AnimationDelayMs, _ = cmd.Flags().GetInt("delay")
	preset.InitiallyVisible, _ = cmd.Flags().GetBool("visible")

	if noBackdrop, _ := cmd.Flags().GetBool("no-backdrop"); noBackdrop {
		f := false
		preset.Backdrop = &f
	}
	if noLock, _ := cmd.Flags().GetBool("no-scroll-lock"); noLock {
		f := false
		preset.LockScroll = &f
	}

	overlays := append(cfg.Overlays, preset)
	if err := config.ValidateOverlays(overlays); err != nil {
		return err
	}

	if err := config.SaveOverlays(path, overlays); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added overlay %q to %s\n", preset.ID, path)
	return nil
}
