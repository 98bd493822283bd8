package typeindex

import (
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/typeindex/internal/config"
	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/extract"
	"github.com/Aman-CERP/typeindex/internal/filter"
	"github.com/Aman-CERP/typeindex/internal/introspect"
)

// Options configures a scan.
type Options struct {
	// Locators are the sources to scan.
	Locators []string

	// Extractors run on every accepted unit. Empty means subtypes, types
	// and resources.
	Extractors []extract.Extractor

	// InputFilter selects units by relative or dotted path; nil accepts all.
	InputFilter filter.Predicate

	// ResultFilter trims query answers; nil keeps everything.
	ResultFilter filter.Predicate

	// Parallel scans sources on a worker pool bounded by Workers
	// (0 means one per CPU).
	Parallel bool
	Workers  int

	// ExpandSupertypes completes the SubTypes hierarchy after scanning.
	ExpandSupertypes bool

	// ExcludeObject keeps java.lang.Object out of the SubTypes category.
	ExcludeObject bool

	// Resolver answers type introspection during expansion. When nil, a
	// classpath resolver over Locators and Classpath is used.
	Resolver introspect.Resolver

	// Classpath lists extra locators visible only to the resolver.
	Classpath []string

	// CacheSize bounds the classpath resolver's header cache.
	CacheSize int

	Logger *slog.Logger
}

// DefaultOptions returns parallel scanning with expansion enabled.
func DefaultOptions() Options {
	return Options{
		Parallel:         true,
		ExpandSupertypes: true,
		ExcludeObject:    true,
	}
}

// FromConfig converts a loaded configuration into scan options.
func FromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	opts.Locators = append([]string(nil), cfg.Sources...)
	opts.Classpath = append([]string(nil), cfg.Classpath...)
	opts.Parallel = cfg.Scan.Parallel
	opts.Workers = cfg.Scan.Workers
	opts.ExpandSupertypes = cfg.Scan.ExpandSupertypes
	opts.ExcludeObject = cfg.Scan.ExcludeObject

	for _, name := range cfg.Scan.Extractors {
		e, ok := extract.ByName(name, cfg.Scan.ExcludeObject)
		if !ok {
			return Options{}, ierrors.ValidationError(fmt.Sprintf("unknown extractor %q", name), nil)
		}
		opts.Extractors = append(opts.Extractors, e)
	}

	f, err := filter.Build(cfg.Filter.Include, cfg.Filter.Packages, cfg.Filter.Exclude)
	if err != nil {
		return Options{}, err
	}
	opts.InputFilter = f.Predicate()
	return opts, nil
}

func (o Options) extractors() []extract.Extractor {
	if len(o.Extractors) > 0 {
		return o.Extractors
	}
	return []extract.Extractor{
		&extract.SubTypes{ExcludeObject: o.ExcludeObject},
		&extract.Types{},
		&extract.Resources{},
	}
}
