package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/config"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/vicsek"
	"github.com/spf13/cobra"
	golog "github.com/tochemey/goakt/v3/log"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vicsek",
		Short: "Vicsek flocking simulator",
		Long: `vicsek simulates self-propelled particles in a periodic square box.

Each step every particle takes the mean heading of its neighbors within
radius r, adds uniform angular noise of amplitude eta and moves at speed v0.

Configuration files may be JSON, TOML or YAML; see configs/ for examples.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (.json, .toml, .yaml)")
	rootCmd.PersistentFlags().Uint64("seed", 0, "Random seed, overrides the configuration (0 keeps it)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newRunCmd(),
		newRecordCmd(),
		newReplayCmd(),
		newSweepCmd(),
	)
	return rootCmd
}

// loadConfig reads --config (or the defaults), applies the global flag
// overrides and fixes the seed so the run can be replayed.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if seed, _ := cmd.Flags().GetUint64("seed"); seed != 0 {
		cfg.Seed = seed
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	cfg.ResolveSeed(vicsek.NewNoiseSource(uint64(time.Now().UnixNano())))
	return cfg, nil
}

// newLogger logs to the command's error stream.
func newLogger(cmd *cobra.Command, cfg *config.Config) golog.Logger {
	var w io.Writer = cmd.ErrOrStderr()
	return config.NewLogger(cfg.LogLevel, w)
}
