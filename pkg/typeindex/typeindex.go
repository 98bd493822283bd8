package typeindex

import (
	"context"
	"log/slog"
	"regexp"
	"sort"

	"github.com/Aman-CERP/typeindex/internal/closure"
	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/extract"
	"github.com/Aman-CERP/typeindex/internal/filter"
	"github.com/Aman-CERP/typeindex/internal/introspect"
	"github.com/Aman-CERP/typeindex/internal/logging"
	"github.com/Aman-CERP/typeindex/internal/scan"
	"github.com/Aman-CERP/typeindex/internal/snapshot"
	"github.com/Aman-CERP/typeindex/internal/store"
)

// Category names of the shipped extractors.
const (
	SubTypes  = extract.SubTypesCategory
	Types     = extract.TypesCategory
	Resources = extract.ResourcesCategory
)

// Index is a queryable result of a scan, a load or a merge.
type Index struct {
	store     *store.Store
	result    *scan.Result
	expansion *closure.Stats
	results   filter.Predicate
}

// Wrap returns an Index over an existing store.
func Wrap(st *store.Store) *Index {
	if st == nil {
		st = store.New()
	}
	return &Index{store: st}
}

// Scan runs the extractors over opts.Locators and, when enabled, expands
// the supertype hierarchy. Unavailable sources and failing units are
// counted in Result; only cancellation or invalid options fail the scan.
func Scan(ctx context.Context, opts Options) (*Index, error) {
	logger := logging.OrDiscard(opts.Logger)

	orch, err := scan.New(scan.Options{
		Locators:    opts.Locators,
		Extractors:  opts.extractors(),
		InputFilter: opts.InputFilter,
		Parallel:    opts.Parallel,
		Workers:     opts.Workers,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	st, result, err := orch.Scan(ctx)
	if err != nil {
		return nil, err
	}
	ix := &Index{store: st, result: result, results: opts.ResultFilter}

	if opts.ExpandSupertypes && st.Has(SubTypes) {
		stats, err := expand(st, opts, logger)
		if err != nil {
			return nil, err
		}
		ix.expansion = stats
	}
	return ix, nil
}

func expand(st *store.Store, opts Options, logger *slog.Logger) (*closure.Stats, error) {
	resolver := opts.Resolver
	if resolver == nil {
		locators := append(append([]string(nil), opts.Locators...), opts.Classpath...)
		cp, err := introspect.NewClasspath(introspect.ClasspathConfig{
			Locators:  locators,
			CacheSize: opts.CacheSize,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		defer func() { _ = cp.Close() }()
		resolver = cp
	}
	return closure.ExpandSupertypes(st, resolver, opts.ExcludeObject, logger)
}

// Load opens a saved index, picking the format from the extension.
func Load(ctx context.Context, path string) (*Index, error) {
	st, err := snapshot.ForPath(path).Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return Wrap(st), nil
}

// Collect loads every saved index and merges them into one.
func Collect(ctx context.Context, paths ...string) (*Index, error) {
	st, err := snapshot.Collect(ctx, paths...)
	if err != nil {
		return nil, err
	}
	return Wrap(st), nil
}

// Store returns the underlying store.
func (ix *Index) Store() *store.Store { return ix.store }

// Result returns the scan summary, or nil for loaded indexes.
func (ix *Index) Result() *scan.Result { return ix.result }

// Expansion returns supertype expansion statistics, or nil when no
// expansion ran.
func (ix *Index) Expansion() *closure.Stats { return ix.expansion }

// Stats counts categories, keys and facts.
func (ix *Index) Stats() store.Stats { return ix.store.Stats() }

// WithResultFilter returns a view of the index whose queries keep only
// names accepted by p.
func (ix *Index) WithResultFilter(p filter.Predicate) *Index {
	view := *ix
	view.results = p
	return &view
}

// Get returns the direct values of keys in category.
func (ix *Index) Get(category string, keys ...string) ([]string, error) {
	return ix.store.Get(category, keys...)
}

// GetAll returns everything reachable from keys in category.
func (ix *Index) GetAll(category string, keys ...string) ([]string, error) {
	return ix.store.GetAll(category, keys...)
}

// SubTypesOf returns every known subtype of name, transitively.
func (ix *Index) SubTypesOf(name string) ([]string, error) {
	all, err := ix.store.GetAll(SubTypes, name)
	if err != nil {
		return nil, err
	}
	return ix.keep(all), nil
}

// DirectSubTypesOf returns the types that declare name as their super
// class or an interface.
func (ix *Index) DirectSubTypesOf(name string) ([]string, error) {
	direct, err := ix.store.Get(SubTypes, name)
	if err != nil {
		return nil, err
	}
	return ix.keep(direct), nil
}

// AllTypes returns every scanned type name, from the Types category when
// it was configured and otherwise from the SubTypes hierarchy.
func (ix *Index) AllTypes() ([]string, error) {
	if ix.store.Has(Types) {
		cat, err := ix.store.Category(Types)
		if err != nil {
			return nil, err
		}
		return ix.keep(cat.Keys()), nil
	}

	cat, err := ix.store.Category(SubTypes)
	if err != nil {
		return nil, ierrors.CategoryNotConfigured(Types)
	}
	seen := make(map[string]struct{})
	for _, k := range cat.Keys() {
		seen[k] = struct{}{}
	}
	for _, v := range cat.Values() {
		seen[v] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return ix.keep(names), nil
}

// Resources returns the paths of resources whose simple name matches the
// regular expression pattern in full.
func (ix *Index) Resources(pattern string) ([]string, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, ierrors.ValidationError("invalid resource pattern: "+pattern, err)
	}

	cat, err := ix.store.Category(Resources)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range cat.Keys() {
		if re.MatchString(k) {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return []string{}, nil
	}
	return cat.GetMany(names), nil
}

// Merge folds other into ix and returns ix.
func (ix *Index) Merge(other *Index) *Index {
	if other != nil {
		ix.store.MergeFrom(other.store)
	}
	return ix
}

// Save writes the index to path. An empty format is derived from the
// extension.
func (ix *Index) Save(ctx context.Context, path, format string) (string, error) {
	ser, err := snapshot.Resolve(format, path)
	if err != nil {
		return "", err
	}
	return ser.Save(ctx, ix.store, path)
}

func (ix *Index) keep(names []string) []string {
	if ix.results == nil {
		return names
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if ix.results(n) {
			out = append(out, n)
		}
	}
	return out
}
