// Package closure completes a partially observed hierarchy relation.
//
// A scan only sees the classes it was pointed at, so the SubTypes category
// holds ancestor -> child edges for declared supertypes but knows nothing
// about the supertypes of those supertypes. Expansion asks a resolver for
// the missing ancestors of every root key and inserts the edges it finds,
// so transitive queries from an unscanned ancestor reach scanned classes.
package closure

import (
	"log/slog"
	"time"

	"github.com/Aman-CERP/typeindex/internal/classfile"
	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
	"github.com/Aman-CERP/typeindex/internal/extract"
	"github.com/Aman-CERP/typeindex/internal/filter"
	"github.com/Aman-CERP/typeindex/internal/introspect"
	"github.com/Aman-CERP/typeindex/internal/logging"
	"github.com/Aman-CERP/typeindex/internal/store"
)

// Stats summarizes one expansion.
type Stats struct {
	// Roots is the number of keys that never appear as a value.
	Roots int
	// SkippedRoots could not be resolved and were left as they are.
	SkippedRoots int
	// EdgesAdded is the number of facts newly inserted into the category.
	EdgesAdded int
	Duration   time.Duration
}

// Expander expands a hierarchy category using a resolver.
type Expander struct {
	// Resolver looks up ancestors; nil resolves nothing.
	Resolver introspect.Resolver
	// Logger receives unresolvable roots at warn level; nil discards.
	Logger *slog.Logger
	// Accept filters ancestor names before an edge is recorded; nil accepts all.
	Accept filter.Predicate
}

// Expand walks the ancestors of every root key of category and merges the
// discovered edges into it. It must run after all writers have finished.
func (e *Expander) Expand(st *store.Store, category string) (*Stats, error) {
	cat, err := st.Category(category)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resolver := introspect.OrNop(e.Resolver)
	logger := logging.OrDiscard(e.Logger)

	values := make(map[string]struct{})
	for _, v := range cat.Values() {
		values[v] = struct{}{}
	}

	stats := &Stats{}
	buffer := store.NewCategory(category)

	for _, key := range cat.Keys() {
		if _, isValue := values[key]; isValue {
			continue
		}
		stats.Roots++

		root, ok := resolver.Resolve(key)
		if !ok {
			stats.SkippedRoots++
			logger.Warn("could not expand supertypes",
				slog.String("code", ierrors.ErrCodeUnresolvableIdentifier),
				slog.String("category", category),
				slog.String("name", key))
			continue
		}
		e.walk(resolver, buffer, root)
	}

	stats.EdgesAdded = cat.MergeFrom(buffer)
	stats.Duration = time.Since(start)

	logger.Info("expanded supertypes",
		slog.String("category", category),
		slog.Int("roots", stats.Roots),
		slog.Int("skipped_roots", stats.SkippedRoots),
		slog.Int("edges_added", stats.EdgesAdded),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}

// walk records ancestor -> child edges from root upwards. An ancestor is
// followed only when its edge is new, which bounds the walk on diamonds and
// cycles. Unresolved ancestors get their edge but end the walk.
func (e *Expander) walk(resolver introspect.Resolver, buffer *store.Category, root introspect.TypeHandle) {
	queue := []introspect.TypeHandle{root}
	for len(queue) > 0 {
		t := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		for _, a := range resolver.ImmediateAncestors(t) {
			if !e.Accept.Test(a.Name) {
				continue
			}
			if buffer.Put(a.Name, t.Name) && a.Resolved {
				queue = append(queue, a)
			}
		}
	}
}

// ExpandSupertypes expands the SubTypes category of st. With excludeObject
// set, the root object type is never recorded as an ancestor.
func ExpandSupertypes(st *store.Store, resolver introspect.Resolver, excludeObject bool, logger *slog.Logger) (*Stats, error) {
	e := &Expander{Resolver: resolver, Logger: logger}
	if excludeObject {
		e.Accept = func(name string) bool { return name != classfile.ObjectClass }
	}
	return e.Expand(st, extract.SubTypesCategory)
}
