package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/alumnet/modguard/internal/setup/config"
	"github.com/alumnet/modguard/internal/storage"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// storeFactories builds one fresh store per backend that runs without external services.
func storeFactories(t *testing.T) map[string]func(t *testing.T) storage.Store {
	t.Helper()

	return map[string]func(t *testing.T) storage.Store{
		"memory": func(t *testing.T) storage.Store {
			t.Helper()
			return storage.NewMemoryStore()
		},
		"file": func(t *testing.T) storage.Store {
			t.Helper()
			store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "data", "db.json"), zap.NewNop())
			require.NoError(t, err)
			return store
		},
		"sqlite": func(t *testing.T) storage.Store {
			t.Helper()
			store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "db.sqlite"))
			require.NoError(t, err)
			return store
		},
		"redis": func(t *testing.T) storage.Store {
			t.Helper()
			mr := miniredis.RunT(t)
			client, err := rueidis.NewClient(rueidis.ClientOption{
				InitAddress:  []string{mr.Addr()},
				DisableCache: true,
			})
			require.NoError(t, err)
			return storage.NewRedisStore(client, "modguard:")
		},
	}
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := factory(t)
			defer store.Close()

			ctx := t.Context()

			// Missing keys report ErrNotFound
			_, err := store.Load(ctx, "moderationAlerts")
			require.ErrorIs(t, err, storage.ErrNotFound)

			// Save then load returns the same blob
			require.NoError(t, store.Save(ctx, "moderationAlerts", []byte(`[{"id":"a"}]`)))
			data, err := store.Load(ctx, "moderationAlerts")
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":"a"}]`, string(data))

			// Save replaces the whole blob
			require.NoError(t, store.Save(ctx, "moderationAlerts", []byte(`[]`)))
			data, err = store.Load(ctx, "moderationAlerts")
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(data))

			// Keys are independent
			require.NoError(t, store.Save(ctx, "userWarningCounts", []byte(`{"u1":2}`)))
			data, err = store.Load(ctx, "userWarningCounts")
			require.NoError(t, err)
			assert.JSONEq(t, `{"u1":2}`, string(data))

			data, err = store.Load(ctx, "moderationAlerts")
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(data))
		})
	}
}

func TestRedisStore_Prefix(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	store := storage.NewRedisStore(client, "modguard:")
	defer store.Close()

	require.NoError(t, store.Save(t.Context(), "userWarnings", []byte(`[]`)))

	got, err := mr.Get("modguard:userWarnings")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestFileStore_Persistence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "db.json")

	first, err := storage.NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.Save(t.Context(), "userWarnings", []byte(`[{"id":"w1"}]`)))

	// A second store over the same document sees the saved key
	second, err := storage.NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	data, err := second.Load(t.Context(), "userWarnings")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"w1"}]`, string(data))
}

func TestFileStore_CorruptDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := storage.NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	_, err = store.Load(t.Context(), "moderationAlerts")
	require.ErrorIs(t, err, storage.ErrCorrupt)
	require.NotErrorIs(t, err, storage.ErrNotFound)

	// Saving replaces the unreadable document
	require.NoError(t, store.Save(t.Context(), "moderationAlerts", []byte(`[]`)))

	data, err := store.Load(t.Context(), "moderationAlerts")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestSQLiteStore_Persistence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "db.sqlite")

	first, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(t.Context(), "userWarningCounts", []byte(`{"u1":3}`)))
	require.NoError(t, first.Close())

	second, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	data, err := second.Load(t.Context(), "userWarningCounts")
	require.NoError(t, err)
	assert.JSONEq(t, `{"u1":3}`, string(data))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     func(t *testing.T) *config.Config
		wantErr error
	}{
		{
			name: "memory",
			cfg: func(_ *testing.T) *config.Config {
				return &config.Config{Storage: config.Storage{Driver: storage.DriverMemory}}
			},
		},
		{
			name: "file",
			cfg: func(t *testing.T) *config.Config {
				t.Helper()
				return &config.Config{Storage: config.Storage{
					Driver:   storage.DriverFile,
					FilePath: filepath.Join(t.TempDir(), "db.json"),
				}}
			},
		},
		{
			name: "sqlite",
			cfg: func(t *testing.T) *config.Config {
				t.Helper()
				return &config.Config{
					Storage: config.Storage{Driver: storage.DriverSQLite},
					SQLite:  config.SQLite{Path: filepath.Join(t.TempDir(), "db.sqlite")},
				}
			},
		},
		{
			name: "unknown driver",
			cfg: func(_ *testing.T) *config.Config {
				return &config.Config{Storage: config.Storage{Driver: "mongo"}}
			},
			wantErr: storage.ErrUnknownDriver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, err := storage.Open(t.Context(), tt.cfg(t), zap.NewNop())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NoError(t, store.Save(t.Context(), "k", []byte(`{}`)))
			require.NoError(t, store.Close())
		})
	}
}
