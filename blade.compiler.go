package blade

import (
	"context"

	"go.uber.org/zap"

	"github.com/itsatony/go-blade/internal"
)

// DirectiveFunc compiles a directive that requires an expression,
// e.g. @name(expr). The returned text replaces the directive.
type DirectiveFunc func(expr string) (string, error)

// EmptyDirectiveFunc compiles a directive that takes no expression.
type EmptyDirectiveFunc func() (string, error)

// OptionalDirectiveFunc compiles a directive whose expression may be
// omitted. hasExpr distinguishes @name from @name().
type OptionalDirectiveFunc func(expr string, hasExpr bool) (string, error)

// CompilerPass rewrites one text segment after the built-in passes. Passes
// never see host code.
type CompilerPass func(text string) (string, error)

// Compiler turns templates into host code and caches the result. Each
// Compiler owns its directive registry; registration must finish before
// the first compile.
type Compiler struct {
	directives *internal.DirectiveCompiler
	cache      *ArtifactCache
	logger     *zap.Logger
}

// NewCompiler creates a compiler with the control-flow directives. Compiled
// artifacts are written under compilationPath, or kept in memory when it is
// empty and no store is configured.
func NewCompiler(compilationPath string, opts ...CompilerOption) (*Compiler, error) {
	config := defaultCompilerConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := config.store
	if store == nil {
		if compilationPath != "" {
			fs, err := NewFilesystemStore(compilationPath)
			if err != nil {
				return nil, NewCacheIOError(ErrMsgCacheWrite, compilationPath, err)
			}
			store = fs
		} else {
			store = NewMemoryStore()
		}
	}

	c := &Compiler{
		directives: internal.NewDirectiveCompiler(logger),
		logger:     logger,
	}
	cacheConfig := config.cache
	if cacheConfig.Logger == nil {
		cacheConfig.Logger = logger
	}
	c.cache = NewArtifactCache(store, c.compile, cacheConfig)
	return c, nil
}

// MustNewCompiler creates a compiler or panics.
func MustNewCompiler(compilationPath string, opts ...CompilerOption) *Compiler {
	c, err := NewCompiler(compilationPath, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// AddDirective registers a directive that requires an expression.
func (c *Compiler) AddDirective(name string, fn DirectiveFunc) error {
	if fn == nil {
		return c.register(name, internal.ArityRequired, nil)
	}
	return c.register(name, internal.ArityRequired, func(_ *internal.CompileState, expr string, _ bool) (string, error) {
		return fn(expr)
	})
}

// AddEmptyDirective registers a directive that takes no expression.
func (c *Compiler) AddEmptyDirective(name string, fn EmptyDirectiveFunc) error {
	if fn == nil {
		return c.register(name, internal.ArityNone, nil)
	}
	return c.register(name, internal.ArityNone, func(_ *internal.CompileState, _ string, _ bool) (string, error) {
		return fn()
	})
}

// AddOptionalDirective registers a directive whose expression may be
// omitted.
func (c *Compiler) AddOptionalDirective(name string, fn OptionalDirectiveFunc) error {
	if fn == nil {
		return c.register(name, internal.ArityOptional, nil)
	}
	return c.register(name, internal.ArityOptional, func(_ *internal.CompileState, expr string, hasExpr bool) (string, error) {
		return fn(expr, hasExpr)
	})
}

// AddCompilerPass appends a pass that runs after directives, in
// registration order.
func (c *Compiler) AddCompilerPass(pass CompilerPass) {
	if pass == nil {
		return
	}
	c.directives.AddPass(internal.CompilerPass(pass))
}

// HasDirective reports whether name is registered.
func (c *Compiler) HasDirective(name string) bool {
	return c.directives.Registry().Has(name)
}

// Directives returns the registered directive names, longest first.
func (c *Compiler) Directives() []string {
	return c.directives.Registry().Names()
}

func (c *Compiler) register(name string, arity internal.Arity, handler internal.DirectiveHandler) error {
	if err := c.directives.Registry().Register(name, arity, handler); err != nil {
		return NewCompileError(name, err)
	}
	return nil
}

// Compile turns template text into host code without touching the cache.
func (c *Compiler) Compile(text string) (string, error) {
	code, err := c.compile(text)
	if err != nil {
		return "", NewCompileError("", err)
	}
	return code, nil
}

func (c *Compiler) compile(text string) (string, error) {
	return c.directives.Compile(text)
}

// CompiledFile returns the artifact for the template at path, compiling
// it when missing or stale.
func (c *Compiler) CompiledFile(ctx context.Context, path string) (*Artifact, error) {
	return c.cache.GetFile(ctx, path)
}

// CompiledString returns the artifact for in-memory template text.
func (c *Compiler) CompiledString(ctx context.Context, id, content string) (*Artifact, error) {
	return c.cache.GetString(ctx, id, content)
}

// RemoveCompiledFiles deletes every artifact this compiler stored.
func (c *Compiler) RemoveCompiledFiles(ctx context.Context) error {
	return c.cache.RemoveAll(ctx)
}

// Cache returns the compiler's artifact cache.
func (c *Compiler) Cache() *ArtifactCache {
	return c.cache
}

// Stats returns the artifact cache counters.
func (c *Compiler) Stats() CacheStats {
	return c.cache.Stats()
}

// Close closes the artifact store.
func (c *Compiler) Close() error {
	return c.cache.Close()
}
