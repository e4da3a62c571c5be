package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/perftree/perftree/pkg/config"
	"github.com/perftree/perftree/pkg/telemetry"
	"github.com/perftree/perftree/pkg/utils"
)

var (
	verbose    bool
	configPath string

	cfg              *config.Config
	logger           utils.Logger
	telemetryCleanup telemetry.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "perftree",
	Short: "Build and analyze merged performance call trees",
	Long: `perftree ingests performance-sampling data from parallel (multi-process,
multi-thread) executions, merges it into a call-context tree, and runs
hotspot/balance analyses over it through a dataflow graph executor.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := utils.LevelInfo
		if verbose {
			level = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(level, os.Stdout)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		shutdown, err := telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("telemetry init failed, continuing without tracing: %v", err)
		} else {
			telemetryCleanup = shutdown
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if telemetryCleanup != nil {
			_ = telemetryCleanup(context.Background())
		}
	},
}

// Execute runs the root command, exiting the process with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug-level logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a perftree config file (defaults to ./config.yaml)")

	binName := BinName()
	rootCmd.Example = `  # Merge collapsed-stack files into a tree and print a hotspot/balance report
  ` + binName + ` analyze -i trace-p0.collapsed -i trace-p1.collapsed

  # Use the fine-grained-lock concurrency model with 8 worker threads
  ` + binName + ` analyze -i trace-*.collapsed --concurrency FineGrainedLock --threads 8

  # Persist the run's hotspot/balance summary to a sqlite history database
  ` + binName + ` analyze -i trace-*.collapsed --store ./runs.db`
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}

// GetLogger returns the logger configured by PersistentPreRunE.
func GetLogger() utils.Logger {
	return logger
}
