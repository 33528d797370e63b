package blade

import (
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring a Viewer.
type Option func(*viewerConfig)

// viewerConfig holds the internal configuration for a Viewer.
type viewerConfig struct {
	logger          *zap.Logger
	paths           []string
	compilationPath string
	store           ArtifactStore
	storeDriver     string
	storeDSN        string
	cache           CacheConfig
	maxExtendsDepth int
	params          map[string]any
	extensions      []extensionConfig
}

type extensionConfig struct {
	name     string
	compiled bool
}

// defaultViewerConfig returns the default viewer configuration.
func defaultViewerConfig() *viewerConfig {
	return &viewerConfig{
		cache:           DefaultCacheConfig(),
		maxExtendsDepth: DefaultMaxExtendsDepth,
		extensions: []extensionConfig{
			{name: ExtensionBlade, compiled: true},
			{name: ExtensionHTML},
			{name: ExtensionText},
		},
	}
}

// WithLogger sets the logger for the viewer and its compilers.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *viewerConfig) {
		c.logger = logger
	}
}

// WithPaths sets the view search paths, in lookup order.
func WithPaths(paths ...string) Option {
	return func(c *viewerConfig) {
		c.paths = append([]string(nil), paths...)
	}
}

// WithCompilationPath stores compiled artifacts as files under dir.
// Ignored when a store is supplied with WithStore or WithStoreDriver.
// Default: "" (artifacts kept in memory)
func WithCompilationPath(dir string) Option {
	return func(c *viewerConfig) {
		c.compilationPath = dir
	}
}

// WithStore sets the artifact store used by the default view compiler.
func WithStore(store ArtifactStore) Option {
	return func(c *viewerConfig) {
		c.store = store
	}
}

// WithStoreDriver opens the artifact store through a registered driver.
//
// Example:
//
//	blade.WithStoreDriver("postgres", "postgres://localhost/views?sslmode=disable")
func WithStoreDriver(driver, dsn string) Option {
	return func(c *viewerConfig) {
		c.storeDriver = driver
		c.storeDSN = dsn
	}
}

// WithCacheTTL sets how long parsed artifacts stay in memory.
// Default: 30 minutes
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *viewerConfig) {
		if ttl > 0 {
			c.cache.TTL = ttl
		}
	}
}

// WithCacheMaxEntries caps the number of parsed artifacts in memory.
// Default: 1000
func WithCacheMaxEntries(n int) Option {
	return func(c *viewerConfig) {
		if n > 0 {
			c.cache.MaxEntries = n
		}
	}
}

// WithMaxExtendsDepth limits the length of an extends chain.
// Default: 32
func WithMaxExtendsDepth(depth int) Option {
	return func(c *viewerConfig) {
		if depth > 0 {
			c.maxExtendsDepth = depth
		}
	}
}

// WithParams assigns parameters visible to every render.
func WithParams(params map[string]any) Option {
	return func(c *viewerConfig) {
		if c.params == nil {
			c.params = make(map[string]any, len(params))
		}
		for k, v := range params {
			c.params[k] = v
		}
	}
}

// WithExtension appends an extension to the lookup table. Compiled
// extensions go through the view compiler; the others are run as host
// code unchanged. An extension already in the table changes mode in place.
func WithExtension(ext string, compiled bool) Option {
	return func(c *viewerConfig) {
		for i := range c.extensions {
			if c.extensions[i].name == ext {
				c.extensions[i].compiled = compiled
				return
			}
		}
		c.extensions = append(c.extensions, extensionConfig{name: ext, compiled: compiled})
	}
}

// WithoutDefaultExtensions clears the extension table. Use with
// WithExtension to build a table from scratch.
func WithoutDefaultExtensions() Option {
	return func(c *viewerConfig) {
		c.extensions = nil
	}
}

// CompilerOption is a functional option for configuring a Compiler.
type CompilerOption func(*compilerConfig)

type compilerConfig struct {
	logger *zap.Logger
	store  ArtifactStore
	cache  CacheConfig
}

func defaultCompilerConfig() *compilerConfig {
	return &compilerConfig{
		cache: DefaultCacheConfig(),
	}
}

// WithCompilerLogger sets the logger for the compiler and its cache.
func WithCompilerLogger(logger *zap.Logger) CompilerOption {
	return func(c *compilerConfig) {
		c.logger = logger
	}
}

// WithCompilerStore sets the store compiled artifacts are saved to,
// overriding the compilation path.
func WithCompilerStore(store ArtifactStore) CompilerOption {
	return func(c *compilerConfig) {
		c.store = store
	}
}

// WithCompilerCache sets the memory cache configuration.
func WithCompilerCache(config CacheConfig) CompilerOption {
	return func(c *compilerConfig) {
		c.cache = config
	}
}
