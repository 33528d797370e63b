package blade

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lists the stores that must satisfy the same contract.
func storeFactories(t *testing.T) map[string]func() ArtifactStore {
	return map[string]func() ArtifactStore{
		StoreDriverNameMemory: func() ArtifactStore { return NewMemoryStore() },
		StoreDriverNameFilesystem: func() ArtifactStore {
			s, err := NewFilesystemStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
}

func TestArtifactStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("save then load", func(t *testing.T) {
				store := factory()
				defer store.Close()

				a := &StoredArtifact{Key: ArtifactKey("views/a.blade.html"), Code: "Hello"}
				require.NoError(t, store.Save(ctx, a))
				assert.False(t, a.CompiledAt.IsZero())

				loaded, err := store.Load(ctx, a.Key)
				require.NoError(t, err)
				assert.Equal(t, "Hello", loaded.Code)
				assert.False(t, loaded.HasOriginal)
				assert.Empty(t, loaded.Original)
			})

			t.Run("keeps original for string sources", func(t *testing.T) {
				store := factory()
				defer store.Close()

				a := &StoredArtifact{Key: ArtifactKey("test"), Code: "<?blade echo 1; ?>", Original: "{{ 1 }}", HasOriginal: true}
				require.NoError(t, store.Save(ctx, a))

				loaded, err := store.Load(ctx, a.Key)
				require.NoError(t, err)
				assert.True(t, loaded.HasOriginal)
				assert.Equal(t, "{{ 1 }}", loaded.Original)
			})

			t.Run("overwrite drops stale original", func(t *testing.T) {
				store := factory()
				defer store.Close()

				key := ArtifactKey("x")
				require.NoError(t, store.Save(ctx, &StoredArtifact{Key: key, Code: "1", Original: "o", HasOriginal: true}))
				require.NoError(t, store.Save(ctx, &StoredArtifact{Key: key, Code: "2"}))

				loaded, err := store.Load(ctx, key)
				require.NoError(t, err)
				assert.Equal(t, "2", loaded.Code)
				assert.False(t, loaded.HasOriginal)
			})

			t.Run("keeps a later compiled time", func(t *testing.T) {
				store := factory()
				defer store.Close()

				future := time.Now().Add(time.Hour).Truncate(time.Second)
				a := &StoredArtifact{Key: ArtifactKey("future"), Code: "x", CompiledAt: future}
				require.NoError(t, store.Save(ctx, a))
				assert.True(t, a.CompiledAt.Equal(future))

				loaded, err := store.Load(ctx, a.Key)
				require.NoError(t, err)
				assert.True(t, loaded.CompiledAt.Equal(future))
			})

			t.Run("missing key", func(t *testing.T) {
				store := factory()
				defer store.Close()

				_, err := store.Load(ctx, ArtifactKey("missing"))
				require.Error(t, err)
				assert.True(t, IsArtifactNotFound(err))
			})

			t.Run("keys delete and delete all", func(t *testing.T) {
				store := factory()
				defer store.Close()

				k1, k2 := ArtifactKey("one"), ArtifactKey("two")
				require.NoError(t, store.Save(ctx, &StoredArtifact{Key: k1, Code: "1"}))
				require.NoError(t, store.Save(ctx, &StoredArtifact{Key: k2, Code: "2", Original: "2", HasOriginal: true}))

				keys, err := store.Keys(ctx)
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{k1, k2}, keys)

				require.NoError(t, store.Delete(ctx, k1))
				require.NoError(t, store.Delete(ctx, k1))
				keys, err = store.Keys(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{k2}, keys)

				require.NoError(t, store.DeleteAll(ctx))
				keys, err = store.Keys(ctx)
				require.NoError(t, err)
				assert.Empty(t, keys)
			})

			t.Run("closed store", func(t *testing.T) {
				store := factory()
				require.NoError(t, store.Close())

				_, err := store.Load(ctx, ArtifactKey("a"))
				require.Error(t, err)
				assert.Contains(t, err.Error(), ErrMsgStoreClosed)
				assert.Error(t, store.Save(ctx, &StoredArtifact{Key: ArtifactKey("a")}))
			})

			t.Run("cancelled context", func(t *testing.T) {
				store := factory()
				defer store.Close()

				cctx, cancel := context.WithCancel(ctx)
				cancel()
				_, err := store.Load(cctx, ArtifactKey("a"))
				assert.ErrorIs(t, err, context.Canceled)
			})

			t.Run("concurrent saves", func(t *testing.T) {
				store := factory()
				defer store.Close()

				var wg sync.WaitGroup
				for i := 0; i < 20; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						key := ArtifactKey(string(rune('a' + i)))
						assert.NoError(t, store.Save(ctx, &StoredArtifact{Key: key, Code: "x"}))
					}(i)
				}
				wg.Wait()

				keys, err := store.Keys(ctx)
				require.NoError(t, err)
				assert.Len(t, keys, 20)
			})
		})
	}
}

func TestFilesystemStore_Layout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFilesystemStore(dir)
	require.NoError(t, err)
	defer store.Close()

	key := ArtifactKey("test")
	require.NoError(t, store.Save(ctx, &StoredArtifact{Key: key, Code: "code", Original: "orig", HasOriginal: true}))

	code, err := os.ReadFile(filepath.Join(dir, "098f6bcd4621d373cade4e832627b4f6.compiled"))
	require.NoError(t, err)
	assert.Equal(t, "code", string(code))

	orig, err := os.ReadFile(filepath.Join(dir, "098f6bcd4621d373cade4e832627b4f6.source"))
	require.NoError(t, err)
	assert.Equal(t, "orig", string(orig))

	t.Run("delete all leaves foreign files", func(t *testing.T) {
		foreign := filepath.Join(dir, "README")
		require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))

		require.NoError(t, store.DeleteAll(ctx))
		_, err := os.Stat(foreign)
		assert.NoError(t, err)
	})
}

func TestFilesystemStore_RejectsBadKeys(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		t.Run(key, func(t *testing.T) {
			_, err := store.Load(context.Background(), key)
			require.Error(t, err)
			assert.Contains(t, err.Error(), ErrMsgInvalidArtifactKey)
		})
	}
}

func TestNewFilesystemStore_EmptyRoot(t *testing.T) {
	_, err := NewFilesystemStore("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgInvalidStoreRoot)
}

func TestStoreDrivers(t *testing.T) {
	drivers := ListStoreDrivers()
	assert.Contains(t, drivers, StoreDriverNameMemory)
	assert.Contains(t, drivers, StoreDriverNameFilesystem)
	assert.Contains(t, drivers, StoreDriverNamePostgres)

	t.Run("open memory", func(t *testing.T) {
		store, err := OpenStore(StoreDriverNameMemory, "")
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
	})

	t.Run("open filesystem", func(t *testing.T) {
		dir := t.TempDir()
		store, err := OpenStore(StoreDriverNameFilesystem, dir)
		require.NoError(t, err)
		fs, ok := store.(*FilesystemStore)
		require.True(t, ok)
		assert.Equal(t, dir, fs.Root())
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := OpenStore("nope", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgStoreDriverNotFound)
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		assert.Panics(t, func() {
			RegisterStoreDriver(StoreDriverNameMemory, &MemoryStoreDriver{})
		})
	})

	t.Run("nil driver panics", func(t *testing.T) {
		assert.Panics(t, func() {
			RegisterStoreDriver("nil-driver", nil)
		})
	})
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()

	assert.Equal(t, PostgresDefaultMaxOpenConns, cfg.MaxOpenConns)
	assert.Equal(t, PostgresDefaultMaxIdleConns, cfg.MaxIdleConns)
	assert.Equal(t, PostgresDefaultConnMaxLifetime, cfg.ConnMaxLifetime)
	assert.Equal(t, PostgresDefaultConnMaxIdleTime, cfg.ConnMaxIdleTime)
	assert.Equal(t, PostgresTablePrefix, cfg.TablePrefix)
	assert.Equal(t, PostgresDefaultQueryTimeout, cfg.QueryTimeout)
	assert.False(t, cfg.AutoMigrate)
}

func TestPostgresStore_EmptyConnectionString(t *testing.T) {
	_, err := NewPostgresStore(PostgresConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgPostgresEmptyConnString)

	_, err = OpenStore(StoreDriverNamePostgres, "")
	require.Error(t, err)
}

func TestPostgresStore_InvalidConnectionString(t *testing.T) {
	_, err := NewPostgresStore(PostgresConfig{ConnectionString: "invalid://not-a-valid-connection-string"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgPostgresConnectionFailed)
}

func TestStorageError(t *testing.T) {
	cause := os.ErrPermission
	err := &StorageError{Message: ErrMsgWriteArtifact, Key: "k", Cause: cause}

	assert.Equal(t, ErrMsgWriteArtifact+": k: "+cause.Error(), err.Error())
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.False(t, IsArtifactNotFound(err))
	assert.True(t, IsArtifactNotFound(NewArtifactNotFoundError("k")))
}
