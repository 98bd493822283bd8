package introspect

import "sync"

// Static resolves types from a fixed, in-memory hierarchy.
type Static struct {
	mu    sync.RWMutex
	types map[string]TypeHandle
}

// NewStatic creates a resolver knowing the given handles.
func NewStatic(handles ...TypeHandle) *Static {
	s := &Static{types: make(map[string]TypeHandle, len(handles))}
	for _, h := range handles {
		s.put(h)
	}
	return s
}

// Add declares a type with its superclass and interfaces.
func (s *Static) Add(name, super string, interfaces ...string) *Static {
	s.put(TypeHandle{Name: name, Super: super, Interfaces: interfaces})
	return s
}

func (s *Static) put(h TypeHandle) {
	h.Resolved = true
	s.mu.Lock()
	s.types[h.Name] = h
	s.mu.Unlock()
}

func (s *Static) Resolve(name string) (TypeHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.types[name]
	return h, ok
}

func (s *Static) ImmediateAncestors(t TypeHandle) []TypeHandle {
	return ancestors(s.Resolve, t)
}
