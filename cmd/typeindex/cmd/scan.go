package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typeindex/internal/config"
	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/output"
	"github.com/Aman-CERP/typeindex/internal/watch"
	"github.com/Aman-CERP/typeindex/pkg/typeindex"
)

type scanFlags struct {
	out       string
	format    string
	parallel  bool
	workers   int
	include   []string
	exclude   []string
	packages  []string
	classpath []string
	noExpand  bool
	watch     bool
}

func newScanCmd() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "scan [locators...]",
		Short: "Scan class directories and archives and save the index",
		Long: `Scan every locator (a class directory, a .jar/.zip/.war archive or a
.jmod module image), expand the supertype hierarchy and save the index.
Without arguments the sources listed in the configuration are scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Index file to write (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "", "Snapshot format: json, yaml or sqlite (default from extension)")
	cmd.Flags().BoolVar(&f.parallel, "parallel", true, "Scan sources on a worker pool")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Worker pool size (0 = one per CPU)")
	cmd.Flags().StringArrayVar(&f.include, "include", nil, "Regex of units to include (repeatable)")
	cmd.Flags().StringArrayVar(&f.exclude, "exclude", nil, "Regex of units to exclude (repeatable)")
	cmd.Flags().StringArrayVar(&f.packages, "package", nil, "Package prefix to include (repeatable)")
	cmd.Flags().StringArrayVar(&f.classpath, "classpath", nil, "Extra locator used only to resolve supertypes (repeatable)")
	cmd.Flags().BoolVar(&f.noExpand, "no-expand", false, "Skip supertype expansion")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Rescan and save whenever a source changes")

	return cmd
}

func runScan(cmd *cobra.Command, args []string, f scanFlags) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	applyScanFlags(cmd, cfg, args, f)

	if len(cfg.Sources) == 0 {
		return ierrors.ValidationError("no sources to scan", nil).
			WithSuggestion("pass locators as arguments or list them under sources: in .typeindex.yaml")
	}

	opts, err := typeindex.FromConfig(cfg)
	if err != nil {
		return err
	}
	opts.Logger = logger

	out := output.New(cmd.OutOrStdout())
	ctx := cmd.Context()

	if err := scanAndSave(ctx, out, opts, cfg.Snapshot); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}
	return watchAndRescan(ctx, out, opts, cfg.Snapshot, logger)
}

// applyScanFlags layers explicitly set flags over the configuration.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config, args []string, f scanFlags) {
	if len(args) > 0 {
		cfg.Sources = args
	}
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Snapshot.Path = f.out
	}
	if flags.Changed("format") {
		cfg.Snapshot.Format = f.format
	}
	if flags.Changed("parallel") {
		cfg.Scan.Parallel = f.parallel
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers = f.workers
	}
	if f.noExpand {
		cfg.Scan.ExpandSupertypes = false
	}
	cfg.Filter.Include = append(cfg.Filter.Include, f.include...)
	cfg.Filter.Exclude = append(cfg.Filter.Exclude, f.exclude...)
	cfg.Filter.Packages = append(cfg.Filter.Packages, f.packages...)
	cfg.Classpath = append(cfg.Classpath, f.classpath...)
}

func scanAndSave(ctx context.Context, out *output.Writer, opts typeindex.Options, snap config.SnapshotConfig) error {
	ix, err := typeindex.Scan(ctx, opts)
	if err != nil {
		return err
	}

	res := ix.Result()
	out.Successf("Scanned %d sources (%d units) in %s", res.SourcesScanned, res.UnitsVisited, res.Duration.Round(time.Millisecond))
	if res.SourcesFailed > 0 {
		out.Warningf("%d sources could not be read", res.SourcesFailed)
	}
	if res.ExtractionFailures > 0 {
		out.Warningf("%d units could not be extracted", res.ExtractionFailures)
	}
	for _, failure := range res.Failures {
		out.Status("", failure.Error())
	}
	if exp := ix.Expansion(); exp != nil && exp.EdgesAdded > 0 {
		out.Statusf("", "Supertype expansion added %d edges", exp.EdgesAdded)
	}

	path, err := ix.Save(ctx, snap.Path, snap.Format)
	if err != nil {
		return err
	}
	stats := ix.Stats()
	out.Successf("Saved %d facts in %d categories to %s", stats.Values, stats.Categories, path)
	return nil
}

func watchAndRescan(ctx context.Context, out *output.Writer, opts typeindex.Options, snap config.SnapshotConfig, logger *slog.Logger) error {
	snapshotPath, err := filepath.Abs(snap.Path)
	if err != nil {
		return fmt.Errorf("resolve snapshot path: %w", err)
	}

	w, err := watch.New(watch.Options{
		Logger: logger,
		Ignore: func(path string) bool {
			return path == snapshotPath || strings.HasPrefix(path, snapshotPath+".")
		},
	})
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, opts.Locators) }()
	out.Status("👀", "Watching sources for changes (Ctrl+C to stop)")

	events, errs := w.Events(), w.Errors()
	for events != nil {
		select {
		case batch, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			out.Statusf("🔄", "%d changes detected, rescanning", len(batch))
			if err := scanAndSave(ctx, out, opts, snap); err != nil {
				if ctx.Err() != nil {
					continue
				}
				out.Error(err.Error())
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			out.Warning(err.Error())
		}
	}

	err = <-done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
