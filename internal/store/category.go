package store

import (
	"sort"
	"sync"
)

// Category is one named multimap of the store: key -> set of values.
// Insertion is idempotent and atomic per key.
type Category struct {
	name string

	mu    sync.RWMutex
	m     map[string]map[string]struct{}
	facts int
}

func newCategory(name string) *Category {
	return &Category{
		name: name,
		m:    make(map[string]map[string]struct{}),
	}
}

// NewCategory creates a standalone category, used as a scratch buffer by
// callers that accumulate facts before merging them into a store.
func NewCategory(name string) *Category {
	return newCategory(name)
}

// Name returns the category name.
func (c *Category) Name() string {
	return c.name
}

// Put adds value to key's set and reports whether it was newly inserted.
func (c *Category) Put(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.m[key]
	if !ok {
		set = make(map[string]struct{})
		c.m[key] = set
	}
	if _, dup := set[value]; dup {
		return false
	}
	set[value] = struct{}{}
	c.facts++
	return true
}

// Get returns the values directly associated with key, sorted. The result
// is a copy and empty when the key is absent.
func (c *Category) Get(key string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedSet(c.m[key])
}

// GetMany returns the union of Get over keys.
func (c *Category) GetMany(keys []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	union := make(map[string]struct{})
	for _, k := range keys {
		for v := range c.m[k] {
			union[v] = struct{}{}
		}
	}
	return sortedSet(union)
}

// Contains reports whether the fact (key, value) is present.
func (c *Category) Contains(key, value string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.m[key][value]
	return ok
}

// Closure walks the relation from seeds and returns every value reached,
// sorted. Each reachable node is expanded exactly once, so cycles terminate.
// Seeds appear in the result only when an edge leads back to them.
func (c *Category) Closure(seeds ...string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	visited := make(map[string]struct{})
	var queue []string
	for _, seed := range seeds {
		for v := range c.m[seed] {
			if _, seen := visited[v]; !seen {
				visited[v] = struct{}{}
				queue = append(queue, v)
			}
		}
	}

	for len(queue) > 0 {
		next := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for v := range c.m[next] {
			if _, seen := visited[v]; !seen {
				visited[v] = struct{}{}
				queue = append(queue, v)
			}
		}
	}

	return sortedSet(visited)
}

// Keys returns all keys with at least one value, sorted.
func (c *Category) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.m))
	for k := range c.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns every value of every key, deduplicated and sorted.
func (c *Category) Values() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make(map[string]struct{})
	for _, set := range c.m {
		for v := range set {
			all[v] = struct{}{}
		}
	}
	return sortedSet(all)
}

// Len returns the number of facts in the category.
func (c *Category) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.facts
}

// Each calls fn for every key with a sorted copy of its values. The category
// is not locked while fn runs, so fn may write to other categories.
func (c *Category) Each(fn func(key string, values []string)) {
	for _, k := range c.Keys() {
		fn(k, c.Get(k))
	}
}

// Contents returns a deep copy as key -> sorted values.
func (c *Category) Contents() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]string, len(c.m))
	for k, set := range c.m {
		out[k] = sortedSet(set)
	}
	return out
}

func (c *Category) size() (keys, facts int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m), c.facts
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
