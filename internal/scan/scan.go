// Package scan drives extraction: it opens every source, feeds each unit to
// the configured extractors and collects the facts in a store, sequentially
// or on a bounded worker pool with one source per worker.
package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/extract"
	"github.com/Aman-CERP/typeindex/internal/filter"
	"github.com/Aman-CERP/typeindex/internal/logging"
	"github.com/Aman-CERP/typeindex/internal/store"
	"github.com/Aman-CERP/typeindex/internal/vfs"
)

// maxRecordedFailures bounds Result.Failures.
const maxRecordedFailures = 100

// Opener opens a source by locator.
type Opener func(ctx context.Context, locator string) (vfs.Source, error)

// Options configures an Orchestrator.
type Options struct {
	// Locators are the sources to scan. Duplicates are scanned once.
	Locators []string
	// Extractors run on every accepted unit. At least one is required.
	Extractors []extract.Extractor
	// InputFilter selects units by relative path or dotted path; nil accepts all.
	InputFilter filter.Predicate
	// Parallel scans sources on a worker pool.
	Parallel bool
	// Workers bounds the pool; 0 means runtime.NumCPU().
	Workers int
	// Logger receives scan diagnostics; nil discards.
	Logger *slog.Logger
	// Opener overrides vfs.Open.
	Opener Opener
}

// Result summarizes a scan. Per-source and per-unit failures are counted
// here rather than returned as errors.
type Result struct {
	SourcesScanned     int
	SourcesFailed      int
	UnitsVisited       int
	ExtractionFailures int
	Keys               int
	Values             int
	Workers            int
	Duration           time.Duration
	// Failures holds the first recorded failures, in no particular order.
	Failures []error
}

// Orchestrator runs scans. It is safe to reuse.
type Orchestrator struct {
	locators   []string
	extractors []extract.Extractor
	filter     filter.Predicate
	parallel   bool
	workers    int
	logger     *slog.Logger
	opener     Opener
}

// New validates opts and creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if len(opts.Extractors) == 0 {
		return nil, ierrors.ValidationError("no extractors configured", nil).
			WithSuggestion("configure at least one extractor (subtypes, types, resources)")
	}
	if opts.Workers < 0 {
		return nil, ierrors.ValidationError(fmt.Sprintf("workers must be non-negative, got %d", opts.Workers), nil)
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	logger := logging.OrDiscard(opts.Logger)
	opener := opts.Opener
	if opener == nil {
		opener = func(ctx context.Context, locator string) (vfs.Source, error) {
			return vfs.Open(ctx, locator, vfs.WithLogger(logger))
		}
	}

	return &Orchestrator{
		locators:   dedupe(opts.Locators),
		extractors: opts.Extractors,
		filter:     opts.InputFilter,
		parallel:   opts.Parallel,
		workers:    workers,
		logger:     logger,
		opener:     opener,
	}, nil
}

// Scan scans into a new store.
func (o *Orchestrator) Scan(ctx context.Context) (*store.Store, *Result, error) {
	st := store.New()
	res, err := o.ScanInto(ctx, st)
	return st, res, err
}

// ScanInto scans into st. Every extractor's category is created before
// scanning starts, so a configured extractor that found nothing yields an
// empty category. Only cancellation of ctx is returned as an error; the
// store then holds whatever was extracted before it.
func (o *Orchestrator) ScanInto(ctx context.Context, st *store.Store) (*Result, error) {
	start := time.Now()
	for _, e := range o.extractors {
		st.GetOrCreate(e.Category())
	}

	run := &runState{}
	workers := 1
	var err error

	if o.parallel && len(o.locators) > 1 {
		workers = min(o.workers, len(o.locators))
		err = o.scanParallel(ctx, st, run, workers)
	} else {
		err = o.scanSequential(ctx, st, run)
	}

	stats := st.Stats()
	res := run.result()
	res.Keys = stats.Keys
	res.Values = stats.Values
	res.Workers = workers
	res.Duration = time.Since(start)

	if err != nil {
		o.logger.Warn("scan cancelled",
			slog.Int("sources", res.SourcesScanned),
			slog.String("error", err.Error()))
		return res, err
	}

	o.logger.Info("scan complete",
		slog.Int64("duration_ms", res.Duration.Milliseconds()),
		slog.Int("sources", res.SourcesScanned),
		slog.Int("sources_failed", res.SourcesFailed),
		slog.Int("units", res.UnitsVisited),
		slog.Int("extraction_failures", res.ExtractionFailures),
		slog.Int("keys", res.Keys),
		slog.Int("values", res.Values),
		slog.Int("workers", res.Workers))

	return res, nil
}

func (o *Orchestrator) scanSequential(ctx context.Context, st *store.Store, run *runState) error {
	for _, loc := range o.locators {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.scanSource(ctx, st, run, loc); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) scanParallel(ctx context.Context, st *store.Store, run *runState, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, loc := range o.locators {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return o.scanSource(gctx, st, run, loc)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// scanSource scans one source. Failures to open or read the source are
// recorded; only context cancellation is returned.
func (o *Orchestrator) scanSource(ctx context.Context, st *store.Store, run *runState, locator string) error {
	src, err := o.opener(ctx, locator)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.sourceFailed(run, locator, err)
		return nil
	}
	defer func() {
		if err := src.Close(); err != nil {
			o.logger.Debug("closing source failed",
				slog.String("locator", locator),
				slog.String("error", err.Error()))
		}
	}()

	o.logger.Debug("scanning source", slog.String("locator", locator))

	for {
		u, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.sourceFailed(run, locator, err)
			return nil
		}
		o.visit(st, run, locator, u)
	}

	run.sourcesScanned.Add(1)
	return nil
}

func (o *Orchestrator) sourceFailed(run *runState, locator string, err error) {
	if ierrors.GetCode(err) == "" {
		err = ierrors.SourceUnavailable(locator, err)
	}
	run.sourcesFailed.Add(1)
	run.record(err)
	o.logger.Warn("could not scan source",
		slog.String("code", ierrors.ErrCodeSourceUnavailable),
		slog.String("locator", locator),
		slog.String("error", err.Error()))
}

// visit runs every accepting extractor on one unit. The unit is decoded at
// most once; a failing extractor does not stop the others.
func (o *Orchestrator) visit(st *store.Store, run *runState, locator string, u vfs.Unit) {
	path, fqn := u.Path(), u.FQN()
	if o.filter != nil && !o.filter(path) && !o.filter(fqn) {
		return
	}
	run.unitsVisited.Add(1)

	var in *extract.Input
	for _, e := range o.extractors {
		if !e.AcceptsInput(path) && !e.AcceptsInput(fqn) {
			continue
		}
		if in == nil {
			in = extract.NewInput(u)
		}

		if err := runExtractor(e, in, st.GetOrCreate(e.Category())); err != nil {
			failure := ierrors.ExtractionFailed(e.Category(), path, err).WithDetail("locator", locator)
			run.extractionFailures.Add(1)
			run.record(failure)
			o.logger.Warn("could not extract",
				slog.String("code", failure.Code),
				slog.String("extractor", e.Category()),
				slog.String("locator", locator),
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}

func runExtractor(e extract.Extractor, in *extract.Input, cat *store.Category) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return e.Extract(in, extract.FilteredSink{Sink: cat, Extractor: e})
}

type runState struct {
	sourcesScanned     atomic.Int64
	sourcesFailed      atomic.Int64
	unitsVisited       atomic.Int64
	extractionFailures atomic.Int64

	mu       sync.Mutex
	failures []error
}

func (r *runState) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.failures) < maxRecordedFailures {
		r.failures = append(r.failures, err)
	}
}

func (r *runState) result() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Result{
		SourcesScanned:     int(r.sourcesScanned.Load()),
		SourcesFailed:      int(r.sourcesFailed.Load()),
		UnitsVisited:       int(r.unitsVisited.Load()),
		ExtractionFailures: int(r.extractionFailures.Load()),
		Failures:           append([]error(nil), r.failures...),
	}
}

func dedupe(locators []string) []string {
	seen := make(map[string]struct{}, len(locators))
	out := make([]string, 0, len(locators))
	for _, l := range locators {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
