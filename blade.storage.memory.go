package blade

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory ArtifactStore. Artifacts are lost when the
// process exits.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]*StoredArtifact
	closed    bool
	now       func() time.Time
}

// MemoryStoreDriver opens MemoryStore instances.
type MemoryStoreDriver struct{}

func init() {
	RegisterStoreDriver(StoreDriverNameMemory, &MemoryStoreDriver{})
}

// Open creates a new MemoryStore. The dsn is ignored.
func (d *MemoryStoreDriver) Open(dsn string) (ArtifactStore, error) {
	return NewMemoryStore(), nil
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		artifacts: make(map[string]*StoredArtifact),
		now:       time.Now,
	}
}

// Load implements ArtifactStore.
func (s *MemoryStore) Load(ctx context.Context, key string) (*StoredArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}
	a, ok := s.artifacts[key]
	if !ok {
		return nil, NewArtifactNotFoundError(key)
	}
	return copyStoredArtifact(a), nil
}

// Save implements ArtifactStore.
func (s *MemoryStore) Save(ctx context.Context, a *StoredArtifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil || a.Key == "" {
		return &StorageError{Message: ErrMsgInvalidArtifactKey}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}
	if now := s.now(); now.After(a.CompiledAt) {
		a.CompiledAt = now
	}
	s.artifacts[a.Key] = copyStoredArtifact(a)
	return nil
}

// Delete implements ArtifactStore.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}
	delete(s.artifacts, key)
	return nil
}

// Keys implements ArtifactStore.
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}
	keys := make([]string, 0, len(s.artifacts))
	for k := range s.artifacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteAll implements ArtifactStore.
func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}
	s.artifacts = make(map[string]*StoredArtifact)
	return nil
}

// Close implements ArtifactStore.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.artifacts = nil
	return nil
}
