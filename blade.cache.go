package blade

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/itsatony/go-blade/internal"
)

// CompileFunc turns template text into host code.
type CompileFunc func(text string) (string, error)

// CacheConfig configures an ArtifactCache.
type CacheConfig struct {
	// TTL is how long a parsed artifact stays in memory before the store
	// is consulted again.
	// Default: 30 minutes.
	TTL time.Duration

	// MaxEntries is the maximum number of parsed artifacts kept in memory.
	// When exceeded, the least recently accessed entry is evicted.
	// Default: 1000.
	MaxEntries int

	// Logger receives debug events. Nil disables logging.
	Logger *zap.Logger
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        DefaultCacheTTL,
		MaxEntries: DefaultCacheMaxEntries,
	}
}

// Artifact is a compiled template ready to run.
type Artifact struct {
	Key         string
	Source      string
	Code        string
	Original    string
	HasOriginal bool
	CompiledAt  time.Time

	program *internal.Program
}

// CacheStats contains cache counters.
type CacheStats struct {
	Hits      int
	Misses    int
	Compiles  int
	Loads     int
	Evictions int
	Entries   int
}

type cacheEntry struct {
	artifact   *Artifact
	cachedAt   time.Time
	accessedAt time.Time
}

// ArtifactCache compiles templates on demand and keeps the results in an
// ArtifactStore, with parsed programs held in memory. Concurrent requests
// for the same key share one compile.
type ArtifactCache struct {
	store   ArtifactStore
	compile CompileFunc
	parser  *internal.ProgramParser
	config  CacheConfig
	logger  *zap.Logger
	group   singleflight.Group
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*cacheEntry
	stats   CacheStats
}

// NewArtifactCache creates a cache over store. A nil compile stores the
// text unchanged, for sources that are already host code.
func NewArtifactCache(store ArtifactStore, compile CompileFunc, config CacheConfig) *ArtifactCache {
	if config.TTL == 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = DefaultCacheMaxEntries
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if compile == nil {
		compile = func(text string) (string, error) { return text, nil }
	}

	return &ArtifactCache{
		store:   store,
		compile: compile,
		parser:  internal.NewProgramParser(logger),
		config:  config,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*cacheEntry),
	}
}

// Store returns the backing artifact store.
func (c *ArtifactCache) Store() ArtifactStore {
	return c.store
}

// GetFile returns the artifact for a template file, compiling it when the
// stored artifact is missing or older than the file.
func (c *ArtifactCache) GetFile(ctx context.Context, path string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := statSource(path)
	if err != nil {
		return nil, err
	}
	modTime := info.ModTime()
	key := ArtifactKey(path)

	if a := c.lookup(key, func(a *Artifact) bool { return !modTime.After(a.CompiledAt) }); a != nil {
		return a, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		stored, err := c.load(ctx, key)
		if err != nil {
			return nil, err
		}
		if stored != nil && !modTime.After(stored.CompiledAt) {
			return c.admit(path, stored, false)
		}

		src, err := NewFileSource(path)
		if err != nil {
			return nil, err
		}
		return c.build(ctx, key, src)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artifact), nil
}

// GetString returns the artifact for in-memory template text. The artifact
// is recompiled whenever content differs from the stored original.
func (c *ArtifactCache) GetString(ctx context.Context, id, content string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := ArtifactKey(id)
	fresh := func(a *Artifact) bool { return a.HasOriginal && a.Original == content }

	if a := c.lookup(key, fresh); a != nil {
		return a, nil
	}

	v, err, _ := c.group.Do(key+":"+ArtifactKey(content), func() (any, error) {
		stored, err := c.load(ctx, key)
		if err != nil {
			return nil, err
		}
		if stored != nil && stored.HasOriginal && stored.Original == content {
			return c.admit(id, stored, false)
		}
		return c.build(ctx, key, NewStringSource(id, content))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artifact), nil
}

// RemoveAll deletes every stored artifact and clears the memory layer.
func (c *ArtifactCache) RemoveAll(ctx context.Context) error {
	if err := c.store.DeleteAll(ctx); err != nil {
		return NewCacheIOError(ErrMsgCacheClear, "", err)
	}

	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.stats.Entries = 0
	c.mu.Unlock()

	c.logger.Debug(LogMsgStoreClear)
	return nil
}

// Invalidate drops key from the memory layer. The stored artifact stays.
func (c *ArtifactCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.stats.Entries = len(c.entries)
	c.mu.Unlock()
}

// Stats returns a snapshot of the cache counters.
func (c *ArtifactCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// Close closes the backing store.
func (c *ArtifactCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
	return c.store.Close()
}

// lookup returns the in-memory artifact for key when it is within TTL and
// fresh reports true. It counts the hit or miss.
func (c *ArtifactCache) lookup(key string, fresh func(*Artifact) bool) *Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	now := c.now()
	if ok && now.Sub(entry.cachedAt) < c.config.TTL && fresh(entry.artifact) {
		entry.accessedAt = now
		c.stats.Hits++
		c.logger.Debug(LogMsgCacheHit, zap.String(LogFieldKey, key))
		return entry.artifact
	}
	c.stats.Misses++
	c.logger.Debug(LogMsgCacheMiss, zap.String(LogFieldKey, key))
	return nil
}

// load returns the stored artifact for key, or nil when the store has none.
func (c *ArtifactCache) load(ctx context.Context, key string) (*StoredArtifact, error) {
	stored, err := c.store.Load(ctx, key)
	if err != nil {
		if IsArtifactNotFound(err) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewCacheIOError(ErrMsgCacheRead, key, err)
	}
	return stored, nil
}

func (c *ArtifactCache) build(ctx context.Context, key string, src *Source) (*Artifact, error) {
	c.logger.Debug(LogMsgCompile,
		zap.String(LogFieldKey, key),
		zap.String(LogFieldSource, src.Name()))

	code, err := c.compile(src.Content)
	if err != nil {
		return nil, NewCompileError(src.Name(), err)
	}

	// File artifacts are never older than their source.
	stored := &StoredArtifact{Key: key, Code: code, CompiledAt: src.ModTime}
	if src.IsString() {
		stored.Original = src.Content
		stored.HasOriginal = true
	}
	if err := c.store.Save(ctx, stored); err != nil {
		return nil, NewCacheIOError(ErrMsgCacheWrite, key, err)
	}
	c.logger.Debug(LogMsgStoreSave, zap.String(LogFieldKey, key))

	return c.admit(src.Name(), stored, true)
}

// admit parses a stored artifact and places it in the memory layer.
func (c *ArtifactCache) admit(name string, stored *StoredArtifact, compiled bool) (*Artifact, error) {
	program, err := c.parser.Parse(stored.Code)
	if err != nil {
		return nil, NewCompileError(name, err)
	}

	a := &Artifact{
		Key:         stored.Key,
		Source:      name,
		Code:        stored.Code,
		Original:    stored.Original,
		HasOriginal: stored.HasOriginal,
		CompiledAt:  stored.CompiledAt,
		program:     program,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if compiled {
		c.stats.Compiles++
		c.logger.Debug(LogMsgCompile,
			zap.String(LogFieldKey, a.Key),
			zap.Int(LogFieldCompiles, c.stats.Compiles))
	} else {
		c.stats.Loads++
		c.logger.Debug(LogMsgStoreLoad, zap.String(LogFieldKey, a.Key))
	}

	if _, exists := c.entries[a.Key]; !exists && len(c.entries) >= c.config.MaxEntries {
		c.evictOldest()
	}
	now := c.now()
	c.entries[a.Key] = &cacheEntry{artifact: a, cachedAt: now, accessedAt: now}
	return a, nil
}

// evictOldest removes the least recently accessed entry.
// Caller must hold c.mu.
func (c *ArtifactCache) evictOldest() {
	var oldestKey string
	var oldest *cacheEntry
	for key, entry := range c.entries {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldest = entry
			oldestKey = key
		}
	}
	if oldest != nil {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
		c.logger.Debug(LogMsgCacheEvict,
			zap.String(LogFieldKey, oldestKey),
			zap.Int(LogFieldEntries, len(c.entries)))
	}
}
