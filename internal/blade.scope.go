package internal

import "sync"

// MapScope is a Scope backed by a map and a function registry.
type MapScope struct {
	mu    sync.RWMutex
	vars  map[string]any
	funcs *FuncRegistry
}

// NewMapScope creates a scope over a copy of vars.
func NewMapScope(vars map[string]any, funcs *FuncRegistry) *MapScope {
	s := &MapScope{
		vars:  make(map[string]any, len(vars)),
		funcs: funcs,
	}
	for k, v := range vars {
		s.vars[k] = v
	}
	return s
}

// Get implements Scope.
func (s *MapScope) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// Set implements Scope.
func (s *MapScope) Set(name string, value any) {
	s.mu.Lock()
	s.vars[name] = value
	s.mu.Unlock()
}

// Func implements Scope.
func (s *MapScope) Func(name string) (*Func, bool) {
	if s.funcs == nil {
		return nil, false
	}
	return s.funcs.Get(name)
}

// Vars returns a copy of the current variables.
func (s *MapScope) Vars() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}
