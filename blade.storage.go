package blade

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// StoredArtifact is the persisted form of a compiled template.
type StoredArtifact struct {
	// Key is the content-addressed artifact name (hex md5 of the source
	// path or string id).
	Key string

	// Code is the generated host code.
	Code string

	// Original is the template text of a string source. File sources
	// leave it empty and HasOriginal false.
	Original    string
	HasOriginal bool

	// CompiledAt is set by the store on Save. A value already later than
	// the store clock is kept.
	CompiledAt time.Time
}

// ArtifactStore persists compiled artifacts.
// Implementations must be safe for concurrent use.
type ArtifactStore interface {
	// Load returns the artifact stored under key.
	// Returns an error matched by IsArtifactNotFound when missing.
	Load(ctx context.Context, key string) (*StoredArtifact, error)

	// Save stores a, replacing any artifact with the same key, and sets
	// a.CompiledAt to the store clock unless a.CompiledAt is later.
	Save(ctx context.Context, a *StoredArtifact) error

	// Delete removes the artifact stored under key. Missing keys are not
	// an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all stored keys, sorted.
	Keys(ctx context.Context) ([]string, error)

	// DeleteAll removes every stored artifact.
	DeleteAll(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// StoreDriver is a factory for artifact stores.
// Drivers register themselves during init().
type StoreDriver interface {
	// Open creates a store. The dsn format is driver-specific.
	Open(dsn string) (ArtifactStore, error)
}

// Store driver registry
var (
	storeDriversMu sync.RWMutex
	storeDrivers   = make(map[string]StoreDriver)
)

// RegisterStoreDriver registers a store driver by name.
// Panics if driver is nil or the name is taken.
func RegisterStoreDriver(name string, driver StoreDriver) {
	storeDriversMu.Lock()
	defer storeDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStoreDriver)
	}
	if _, exists := storeDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storeDrivers[name] = driver
}

// OpenStore opens an artifact store with the named driver.
//
// Example:
//
//	store, err := blade.OpenStore("memory", "")
//	store, err := blade.OpenStore("filesystem", "/var/cache/blade")
func OpenStore(driverName, dsn string) (ArtifactStore, error) {
	storeDriversMu.RLock()
	driver, ok := storeDrivers[driverName]
	storeDriversMu.RUnlock()

	if !ok {
		return nil, &StorageError{Message: ErrMsgStoreDriverNotFound, Key: driverName}
	}
	return driver.Open(dsn)
}

// ListStoreDrivers returns the names of all registered drivers, sorted.
func ListStoreDrivers() []string {
	storeDriversMu.RLock()
	defer storeDriversMu.RUnlock()

	names := make([]string, 0, len(storeDrivers))
	for name := range storeDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage error messages
const (
	ErrMsgNilStoreDriver          = "store driver is nil"
	ErrMsgDriverAlreadyRegistered = "store driver already registered"
	ErrMsgStoreDriverNotFound     = "store driver not found"
	ErrMsgStoreClosed             = "store is closed"
	ErrMsgArtifactNotFound        = "artifact not found"
	ErrMsgInvalidArtifactKey      = "invalid artifact key"
	ErrMsgInvalidStoreRoot        = "store directory cannot be empty"
	ErrMsgCreateStoreDir          = "failed to create store directory"
	ErrMsgReadStoreDir            = "failed to read store directory"
	ErrMsgReadArtifact            = "failed to read artifact file"
	ErrMsgWriteArtifact           = "failed to write artifact file"
	ErrMsgDeleteArtifact          = "failed to delete artifact file"

	ErrMsgPostgresConnectionFailed = "failed to connect to PostgreSQL"
	ErrMsgPostgresQueryFailed      = "PostgreSQL query failed"
	ErrMsgPostgresMigrationFailed  = "PostgreSQL migration failed"
	ErrMsgPostgresEmptyConnString  = "PostgreSQL connection string is empty"
	ErrMsgPostgresAlreadyClosed    = "PostgreSQL store is already closed"
)

// StorageError represents an artifact store failure.
type StorageError struct {
	Message string
	Key     string
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg += ": " + e.Key
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewArtifactNotFoundError creates the error stores return for a missing key.
func NewArtifactNotFoundError(key string) error {
	return &StorageError{Message: ErrMsgArtifactNotFound, Key: key}
}

// NewStoreClosedError creates an error for operations on a closed store.
func NewStoreClosedError() error {
	return &StorageError{Message: ErrMsgStoreClosed}
}

// IsArtifactNotFound reports whether err is a store miss.
func IsArtifactNotFound(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Message == ErrMsgArtifactNotFound
}

// copyStoredArtifact returns a shallow copy so callers never share a
// store's record.
func copyStoredArtifact(a *StoredArtifact) *StoredArtifact {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
