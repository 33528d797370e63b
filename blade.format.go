package blade

import (
	"regexp"
	"sort"
	"sync"
)

// FormatFunc is a callable behind a custom view directive.
type FormatFunc func(args ...any) (any, error)

var formatNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// FormatRegistry maps custom view directive names to their callables.
type FormatRegistry struct {
	mu    sync.RWMutex
	funcs map[string]FormatFunc
}

// NewFormatRegistry creates an empty registry.
func NewFormatRegistry() *FormatRegistry {
	return &FormatRegistry{funcs: make(map[string]FormatFunc)}
}

// Register binds name to fn, replacing any earlier binding.
func (r *FormatRegistry) Register(name string, fn FormatFunc) error {
	if !formatNamePattern.MatchString(name) {
		return NewFormatError(ErrMsgInvalidFormatName, name)
	}
	if fn == nil {
		return NewFormatError(ErrMsgNilFormatFunc, name)
	}

	r.mu.Lock()
	r.funcs[name] = fn
	r.mu.Unlock()
	return nil
}

// Has reports whether name is bound.
func (r *FormatRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Call invokes the callable bound to name.
func (r *FormatRegistry) Call(name string, args ...any) (any, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, NewDirectiveNotDefinedError(name)
	}
	return fn(args...)
}

// Names returns the bound names, sorted.
func (r *FormatRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
