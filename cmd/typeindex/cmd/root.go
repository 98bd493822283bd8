// Package cmd provides the CLI commands for typeindex.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typeindex/internal/config"
	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/logging"
	"github.com/Aman-CERP/typeindex/internal/profiling"
	"github.com/Aman-CERP/typeindex/pkg/version"
)

// Persistent flags
var (
	debugMode bool
	configDir string
	profile   profiling.Config
)

// Per-run state released by the post-run hook
var (
	loggingCleanup func()
	profSession    *profiling.Session
)

// NewRootCmd creates the root command for the typeindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "typeindex",
		Short: "Index type hierarchies and resources of compiled classes",
		Long: `typeindex scans class directories, archives and module images and
records which types extend or implement which, which types exist and
where resources live. Saved indexes answer queries without rescanning.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("typeindex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.typeindex/logs/")
	cmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory holding .typeindex.yaml")
	cmd.PersistentFlags().StringVar(&profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Short()))
	}

	if profile.Enabled() {
		s, err := profiling.Start(profile)
		if err != nil {
			return err
		}
		profSession = s
	}
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profSession != nil {
		err = profSession.Stop()
		profSession = nil
	}
	if loggingCleanup != nil {
		if debugMode {
			slog.Info("Debug logging stopped")
		}
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and prints failures for the terminal.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprint(root.ErrOrStderr(), ierrors.FormatForCLI(err))
	}
	return err
}

// loadConfig loads configuration from --config and builds the logger the
// components use. Under --debug the debug logger is used as is.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, err
	}
	if debugMode {
		return cfg, slog.Default(), nil
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	if cfg.Log.File != "" {
		logCfg.FilePath = cfg.Log.File
		logCfg.WriteToStderr = false
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	return cfg, logger, nil
}
