// Package store holds the inverted index that scanning populates: a set of
// named categories, each a multimap from key to a set of values.
//
// Facts are idempotent set members, so the end state of a store is
// independent of the order facts were inserted in. All methods are safe for
// concurrent use.
package store

import (
	"sync"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
)

// Store maps category names to categories. Categories are created lazily on
// first write and reported in creation order.
type Store struct {
	mu         sync.RWMutex
	categories map[string]*Category
	order      []string
}

// Stats summarizes the contents of a store.
type Stats struct {
	Categories int
	Keys       int
	Values     int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		categories: make(map[string]*Category),
	}
}

// GetOrCreate returns the named category, creating it on first access.
func (s *Store) GetOrCreate(name string) *Category {
	s.mu.RLock()
	c, ok := s.categories[name]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.categories[name]; ok {
		return c
	}
	c = newCategory(name)
	s.categories[name] = c
	s.order = append(s.order, name)
	return c
}

// Category returns the named category, or a CategoryNotConfigured error when
// nothing ever registered it. This distinguishes "no extractor configured"
// from "no matches".
func (s *Store) Category(name string) (*Category, error) {
	s.mu.RLock()
	c, ok := s.categories[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ierrors.CategoryNotConfigured(name)
	}
	return c, nil
}

// Has reports whether the named category exists.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.categories[name]
	return ok
}

// Categories returns category names in creation order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Put records the fact (key, value) in the named category, creating the
// category if needed. It reports whether the fact was newly inserted.
func (s *Store) Put(category, key, value string) bool {
	return s.GetOrCreate(category).Put(key, value)
}

// Get returns the union of the values directly associated with keys, as a
// sorted set. Absent keys contribute nothing.
func (s *Store) Get(category string, keys ...string) ([]string, error) {
	c, err := s.Category(category)
	if err != nil {
		return nil, err
	}
	if len(keys) == 1 {
		return c.Get(keys[0]), nil
	}
	return c.GetMany(keys), nil
}

// GetAll returns every value transitively reachable from keys, excluding the
// keys themselves unless some edge leads back to them.
func (s *Store) GetAll(category string, keys ...string) ([]string, error) {
	c, err := s.Category(category)
	if err != nil {
		return nil, err
	}
	return c.Closure(keys...), nil
}

// Stats counts categories, distinct keys and facts across the store.
func (s *Store) Stats() Stats {
	var st Stats
	for _, name := range s.Categories() {
		c, err := s.Category(name)
		if err != nil {
			continue
		}
		keys, facts := c.size()
		st.Categories++
		st.Keys += keys
		st.Values += facts
	}
	return st
}

// Contents returns a deep copy of the store as category -> key -> sorted
// values. Two stores with equal contents hold exactly the same facts.
func (s *Store) Contents() map[string]map[string][]string {
	out := make(map[string]map[string][]string)
	for _, name := range s.Categories() {
		c, err := s.Category(name)
		if err != nil {
			continue
		}
		out[name] = c.Contents()
	}
	return out
}
