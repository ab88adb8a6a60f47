package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebit/storekit/cache"
	"github.com/castlebit/storekit/config"
	"github.com/castlebit/storekit/entity"
	"github.com/castlebit/storekit/persistence/memory"
	"github.com/castlebit/storekit/storekittest"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Type: "memory"},
		Cache:   config.CacheConfig{TTL: time.Minute, CleanupInterval: time.Minute},
	}
}

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := memoryConfig()
	cfg.Storage.Type = "sqlite"
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "storekit.db")
	return cfg
}

func TestOpen_Memoization(t *testing.T) {
	f := New(memoryConfig())
	defer f.Close()
	ctx := context.Background()

	first, err := Open(ctx, f, storekittest.Users)
	require.NoError(t, err)

	second, err := Open(ctx, f, storekittest.Users)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestOpen_UnknownStorageType(t *testing.T) {
	cfg := memoryConfig()
	cfg.Storage.Type = "redis"
	f := New(cfg)
	defer f.Close()

	_, err := Open(context.Background(), f, storekittest.Users)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}

func TestOpen_WrongEntityType(t *testing.T) {
	f := New(memoryConfig())
	defer f.Close()
	ctx := context.Background()

	_, err := Open(ctx, f, storekittest.Users)
	require.NoError(t, err)

	// Same collection name, different entity type.
	_, err = Open(ctx, f, widgets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different entity type")
}

func TestOpen_CacheDecorator(t *testing.T) {
	cfg := memoryConfig()
	cfg.Cache.Enabled = true
	f := New(cfg)
	defer f.Close()

	repo, err := Open(context.Background(), f, storekittest.Users)
	require.NoError(t, err)

	_, ok := repo.(*cache.Repository[*storekittest.User])
	assert.True(t, ok, "expected a cache-decorated repository, got %T", repo)
}

func TestOpen_SQLiteBackend(t *testing.T) {
	f := New(sqliteConfig(t))
	defer f.Close()
	ctx := context.Background()

	repo, err := Open(ctx, f, storekittest.Users)
	require.NoError(t, err)

	created, err := repo.Create(ctx, &storekittest.User{Name: "Ada"}).Unpack()
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID).Unpack()
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ada", found.Name)
}

func TestRegister(t *testing.T) {
	f := New(memoryConfig())
	defer f.Close()
	ctx := context.Background()

	injected := memory.NewRepository(storekittest.Users)
	Register[*storekittest.User](f, storekittest.Users.Name(), injected)

	t.Run("overrides the configured backend", func(t *testing.T) {
		repo, err := Open(ctx, f, storekittest.Users)
		require.NoError(t, err)
		assert.Same(t, injected, repo)
	})

	t.Run("survives Reconfigure", func(t *testing.T) {
		require.NoError(t, f.Reconfigure(memoryConfig()))

		repo, err := Open(ctx, f, storekittest.Users)
		require.NoError(t, err)
		assert.Same(t, injected, repo)
	})
}

func TestReconfigure(t *testing.T) {
	ctx := context.Background()

	t.Run("discards memoized instances", func(t *testing.T) {
		f := New(memoryConfig())
		defer f.Close()

		before, err := Open(ctx, f, storekittest.Users)
		require.NoError(t, err)

		require.NoError(t, f.Reconfigure(memoryConfig()))

		after, err := Open(ctx, f, storekittest.Users)
		require.NoError(t, err)
		assert.NotSame(t, before, after)
	})

	t.Run("switches backends", func(t *testing.T) {
		f := New(memoryConfig())
		defer f.Close()

		repo, err := Open(ctx, f, storekittest.Users)
		require.NoError(t, err)
		created, err := repo.Create(ctx, &storekittest.User{Name: "Ada"}).Unpack()
		require.NoError(t, err)

		require.NoError(t, f.Reconfigure(sqliteConfig(t)))

		fresh, err := Open(ctx, f, storekittest.Users)
		require.NoError(t, err)

		// The new backend starts empty.
		found, err := fresh.FindByID(ctx, created.ID).Unpack()
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

// widgets is a second descriptor that reuses the users collection name to
// provoke the type mismatch.
var widgets entity.Descriptor[*widget] = widgetDescriptor{}

type widget struct {
	entity.Metadata
	Label string `json:"label"`
}

type widgetDescriptor struct{}

func (widgetDescriptor) Name() string { return "users" }

func (widgetDescriptor) New() *widget { return &widget{} }

func (widgetDescriptor) Clone(w *widget) *widget {
	if w == nil {
		return nil
	}
	clone := *w
	return &clone
}

func (widgetDescriptor) Value(w *widget, field string) (any, bool) {
	switch field {
	case "id":
		return w.ID, true
	case "label":
		return w.Label, true
	}
	return nil, false
}
