// Mezzobridge connects a DMT serial touch display to a Mezzo audio matrix.
//
// Volume controls on the display are pushed to the matching zone on the
// device, and the display is corrected afterwards with the gain the device
// actually applied.
//
// Usage:
//
//	mezzobridge run --config /etc/mezzobridge.yaml
//
// See 'mezzobridge --help' for the other commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/mezzobridge/internal/bridge"
	"github.com/muurk/mezzobridge/internal/config"
	"github.com/muurk/mezzobridge/internal/logging"
	"github.com/muurk/mezzobridge/internal/transport"
	"github.com/muurk/mezzobridge/internal/ui"
	"github.com/muurk/mezzobridge/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "mezzobridge",
	Short: "DMT display to Mezzo audio matrix bridge",
	Long: `Bridges a DMT serial touch display to a Mezzo audio matrix.

Volume gestures on the display are converted to device gain and sent to the
configured zone. About two seconds later the zone is read back and the display
is corrected to the gain the device actually applied. Every zone is also swept
periodically so the display heals from missed updates.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: platform config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides "+logging.LogLevelEnvVar)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	path, err := config.ResolvePath(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, nil); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s:\n%w", path, err)
	}
	return cfg, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bridge",
	Long: `Open the display port and run the bridge until interrupted.

The display port is a serial device path, or a ws:// URL for a networked
serial adapter.`,
	Example: `  # Run with the default config location
  mezzobridge run

  # Run against a specific config with debug logging
  mezzobridge run --config ./mezzobridge.yaml --log-level debug

  # Override the serial port from the environment
  MEZZOBRIDGE_PORT=/dev/ttyAMA0 mezzobridge run`,
	RunE: runBridge,
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port, err := transport.Open(ctx, cfg.Display.Port, transport.Options{
		BaudRate:    cfg.Display.Baud,
		ReadTimeout: cfg.Display.ReadTimeout,
	})
	if err != nil {
		return err
	}

	b, err := bridge.New(cfg, port)
	if err != nil {
		_ = port.Close()
		return err
	}

	fmt.Print(ui.Banner("mezzobridge "+version.Get().Version,
		ui.Detail{Key: "Display", Value: cfg.Display.Port},
		ui.Detail{Key: "Device", Value: fmt.Sprint(cfg.Device.Endpoints)},
		ui.Detail{Key: "Zones", Value: fmt.Sprint(len(cfg.Zones))},
	))

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		logging.Error("Bridge failed", zap.Error(err))
		return err
	}
	return nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("mezzobridge %s (commit: %s, %s)\n", info.Version, info.Commit, info.GoVersion)
	},
}

// background is used by one-shot commands that run without signal handling.
func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
