package blade

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FilesystemStore keeps artifacts as files in one directory:
//
//	<root>/
//	  <key>.compiled   # generated host code; its mtime is CompiledAt
//	  <key>.source     # original text, string sources only
type FilesystemStore struct {
	mu     sync.RWMutex
	root   string
	closed bool
}

// FilesystemStoreDriver opens FilesystemStore instances.
type FilesystemStoreDriver struct{}

func init() {
	RegisterStoreDriver(StoreDriverNameFilesystem, &FilesystemStoreDriver{})
}

// Open creates a FilesystemStore. The dsn is the directory path.
func (d *FilesystemStoreDriver) Open(dsn string) (ArtifactStore, error) {
	return NewFilesystemStore(dsn)
}

// NewFilesystemStore creates a store rooted at root, creating the
// directory when missing.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if root == "" {
		return nil, &StorageError{Message: ErrMsgInvalidStoreRoot}
	}
	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, &StorageError{Message: ErrMsgCreateStoreDir, Key: root, Cause: err}
	}
	return &FilesystemStore{root: root}, nil
}

// Root returns the store directory.
func (s *FilesystemStore) Root() string {
	return s.root
}

// CompiledPath returns the file holding the host code for key.
func (s *FilesystemStore) CompiledPath(key string) string {
	return filepath.Join(s.root, key+ArtifactCompiledSuffix)
}

func (s *FilesystemStore) sourcePath(key string) string {
	return filepath.Join(s.root, key+ArtifactSourceSuffix)
}

// Load implements ArtifactStore.
func (s *FilesystemStore) Load(ctx context.Context, key string) (*StoredArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateArtifactKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}

	path := s.CompiledPath(key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewArtifactNotFoundError(key)
		}
		return nil, &StorageError{Message: ErrMsgReadArtifact, Key: key, Cause: err}
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Message: ErrMsgReadArtifact, Key: key, Cause: err}
	}

	a := &StoredArtifact{
		Key:        key,
		Code:       string(code),
		CompiledAt: info.ModTime(),
	}

	original, err := os.ReadFile(s.sourcePath(key))
	switch {
	case err == nil:
		a.Original = string(original)
		a.HasOriginal = true
	case !errors.Is(err, fs.ErrNotExist):
		return nil, &StorageError{Message: ErrMsgReadArtifact, Key: key, Cause: err}
	}
	return a, nil
}

// Save implements ArtifactStore. The original is written before the code
// so a reader never sees fresh code next to a stale original.
func (s *FilesystemStore) Save(ctx context.Context, a *StoredArtifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return &StorageError{Message: ErrMsgInvalidArtifactKey}
	}
	if err := validateArtifactKey(a.Key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}

	if a.HasOriginal {
		if err := os.WriteFile(s.sourcePath(a.Key), []byte(a.Original), FilesystemFilePermissions); err != nil {
			return &StorageError{Message: ErrMsgWriteArtifact, Key: a.Key, Cause: err}
		}
	} else if err := removeIfExists(s.sourcePath(a.Key)); err != nil {
		return &StorageError{Message: ErrMsgDeleteArtifact, Key: a.Key, Cause: err}
	}

	path := s.CompiledPath(a.Key)
	if err := os.WriteFile(path, []byte(a.Code), FilesystemFilePermissions); err != nil {
		return &StorageError{Message: ErrMsgWriteArtifact, Key: a.Key, Cause: err}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &StorageError{Message: ErrMsgReadArtifact, Key: a.Key, Cause: err}
	}
	if !a.CompiledAt.After(info.ModTime()) {
		a.CompiledAt = info.ModTime()
		return nil
	}
	if err := os.Chtimes(path, a.CompiledAt, a.CompiledAt); err != nil {
		return &StorageError{Message: ErrMsgWriteArtifact, Key: a.Key, Cause: err}
	}
	return nil
}

// Delete implements ArtifactStore.
func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateArtifactKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}
	return s.deleteLocked(key)
}

func (s *FilesystemStore) deleteLocked(key string) error {
	for _, path := range []string{s.CompiledPath(key), s.sourcePath(key)} {
		if err := removeIfExists(path); err != nil {
			return &StorageError{Message: ErrMsgDeleteArtifact, Key: key, Cause: err}
		}
	}
	return nil
}

// Keys implements ArtifactStore.
func (s *FilesystemStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}
	return s.keysLocked()
}

func (s *FilesystemStore) keysLocked() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &StorageError{Message: ErrMsgReadStoreDir, Key: s.root, Cause: err}
	}

	seen := make(map[string]bool)
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		var key string
		switch {
		case strings.HasSuffix(name, ArtifactCompiledSuffix):
			key = strings.TrimSuffix(name, ArtifactCompiledSuffix)
		case strings.HasSuffix(name, ArtifactSourceSuffix):
			key = strings.TrimSuffix(name, ArtifactSourceSuffix)
		default:
			continue
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteAll implements ArtifactStore. Files that are not artifacts are
// left alone.
func (s *FilesystemStore) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}

	keys, err := s.keysLocked()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.deleteLocked(key); err != nil {
			return err
		}
	}
	return nil
}

// Close implements ArtifactStore. Files stay on disk.
func (s *FilesystemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// validateArtifactKey rejects keys that could escape the store directory.
func validateArtifactKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, "/\\:*?\"<>|") {
		return &StorageError{Message: ErrMsgInvalidArtifactKey, Key: key}
	}
	return nil
}
