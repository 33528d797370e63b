package internal

import (
	"regexp"
	"sort"
	"sync"
)

// Arity classifies how a directive captures its parenthesized expression.
type Arity int

const (
	// ArityRequired directives must be followed by ( ... ).
	ArityRequired Arity = iota
	// ArityOptional directives capture ( ... ) when present.
	ArityOptional
	// ArityNone directives never capture.
	ArityNone
)

// Arity names for debugging
const (
	ArityNameRequired = "required"
	ArityNameOptional = "optional"
	ArityNameNone     = "none"
)

// String returns the arity name
func (a Arity) String() string {
	switch a {
	case ArityRequired:
		return ArityNameRequired
	case ArityOptional:
		return ArityNameOptional
	default:
		return ArityNameNone
	}
}

// DirectiveHandler turns a captured expression into host code. hasExpr is
// false when an optional or argument-free directive captured nothing.
type DirectiveHandler func(state *CompileState, expr string, hasExpr bool) (string, error)

// DirectiveSpec is one registered directive.
type DirectiveSpec struct {
	Name    string
	Arity   Arity
	Handler DirectiveHandler
}

// DirectiveMatch is one directive occurrence found in template text.
type DirectiveMatch struct {
	Name    string
	Expr    string
	HasExpr bool
	Start   int
	End     int
}

var directiveNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// DirectiveRegistry maps directive names to specs. Each compiler owns one.
type DirectiveRegistry struct {
	mu     sync.RWMutex
	specs  map[string]*DirectiveSpec
	sorted []string
}

// NewDirectiveRegistry creates an empty registry
func NewDirectiveRegistry() *DirectiveRegistry {
	return &DirectiveRegistry{
		specs: make(map[string]*DirectiveSpec),
	}
}

// Register adds a directive. Names must be identifiers and must not collide
// with an existing directive.
func (r *DirectiveRegistry) Register(name string, arity Arity, handler DirectiveHandler) error {
	if !directiveNamePattern.MatchString(name) {
		return NewCompileError(ErrMsgInvalidDirectiveName, name, -1, nil)
	}
	if handler == nil {
		return NewCompileError(ErrMsgNilDirectiveHandler, name, -1, nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[name]; exists {
		return NewCompileError(ErrMsgDirectiveExists, name, -1, nil)
	}
	r.specs[name] = &DirectiveSpec{Name: name, Arity: arity, Handler: handler}
	r.sorted = nil
	return nil
}

// MustRegister adds a directive and panics on error
func (r *DirectiveRegistry) MustRegister(name string, arity Arity, handler DirectiveHandler) {
	if err := r.Register(name, arity, handler); err != nil {
		panic(err)
	}
}

// Resolve returns the spec registered under name.
func (r *DirectiveRegistry) Resolve(name string) (*DirectiveSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]
	return spec, ok
}

// Has checks if a directive is registered
func (r *DirectiveRegistry) Has(name string) bool {
	_, ok := r.Resolve(name)
	return ok
}

// Count returns the number of registered directives
func (r *DirectiveRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.specs)
}

// Names returns all directive names, longest first, ties broken
// alphabetically. Matching in this order guarantees a longer name always
// wins over its prefixes.
func (r *DirectiveRegistry) Names() []string {
	r.mu.RLock()
	if r.sorted != nil {
		names := r.sorted
		r.mu.RUnlock()
		return names
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	r.sorted = names
	return names
}

// matchName returns the longest registered name starting at text[i] that
// ends on a word boundary.
func matchName(text string, i int, names []string) string {
	for _, name := range names {
		end := i + len(name)
		if end > len(text) || text[i:end] != name {
			continue
		}
		if end < len(text) && isIdentByte(text[end]) {
			continue
		}
		return name
	}
	return ""
}
