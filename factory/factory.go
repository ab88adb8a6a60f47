// Package factory builds and memoizes configured repositories: one instance
// per collection name per configuration. It is an explicit value the caller
// constructs and threads through, not a process-wide registry.
package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/castlebit/storekit/cache"
	"github.com/castlebit/storekit/config"
	"github.com/castlebit/storekit/entity"
	"github.com/castlebit/storekit/observability"
	"github.com/castlebit/storekit/persistence/memory"
	"github.com/castlebit/storekit/persistence/mysql"
	"github.com/castlebit/storekit/persistence/sqlite"
	"github.com/castlebit/storekit/repository"
)

// Factory hands out repositories built for the configured storage backend.
// Backend database handles are shared across collections and owned by the
// factory.
type Factory struct {
	mu        sync.Mutex
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	instances map[string]any
	overrides map[string]any
	sqliteDB  *sqlite.DB
	mysqlDB   *mysql.DB
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) { f.logger = logger }
}

// WithMetrics enables operation metrics on every repository the factory
// hands out.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(f *Factory) { f.metrics = metrics }
}

// New creates a factory for the given configuration.
func New(cfg *config.Config, opts ...Option) *Factory {
	f := &Factory{
		cfg:       cfg,
		logger:    slog.Default(),
		instances: make(map[string]any),
		overrides: make(map[string]any),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open returns the repository for the described collection, building it on
// first use. Instances are memoized per collection name until the
// configuration changes. Explicitly registered instances take precedence
// over the configured backend.
func Open[T entity.Entity](ctx context.Context, f *Factory, desc entity.Descriptor[T]) (repository.Repository[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := desc.Name()
	if inst, ok := f.overrides[name]; ok {
		return asRepository[T](name, inst)
	}
	if inst, ok := f.instances[name]; ok {
		return asRepository[T](name, inst)
	}

	var repo repository.Repository[T]
	switch strings.ToLower(f.cfg.Storage.Type) {
	case "memory", "":
		repo = memory.NewRepository(desc)

	case "sqlite":
		if f.sqliteDB == nil {
			db, err := sqlite.NewDB(f.cfg.Storage.SQLite.Path)
			if err != nil {
				return nil, fmt.Errorf("sqlite init: %w", err)
			}
			f.sqliteDB = db
			f.logger.Info("SQLite storage initialized", "path", f.cfg.Storage.SQLite.Path)
		}
		if err := f.sqliteDB.Migrate(ctx, name); err != nil {
			return nil, fmt.Errorf("sqlite migration: %w", err)
		}
		repo = sqlite.NewRepository(f.sqliteDB, desc)

	case "mysql":
		if f.mysqlDB == nil {
			db, err := mysql.NewDB(&f.cfg.Storage.MySQL)
			if err != nil {
				return nil, fmt.Errorf("mysql init: %w", err)
			}
			f.mysqlDB = db
			f.logger.Info("MySQL storage initialized",
				"host", f.cfg.Storage.MySQL.Host,
				"database", f.cfg.Storage.MySQL.Database,
			)
		}
		if err := f.mysqlDB.Migrate(ctx, name); err != nil {
			return nil, fmt.Errorf("mysql migration: %w", err)
		}
		repo = mysql.NewRepository(f.mysqlDB, desc)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", f.cfg.Storage.Type)
	}

	if f.cfg.Cache.Enabled {
		repo = cache.NewRepository(repo, desc, f.cfg.Cache.TTL, f.cfg.Cache.CleanupInterval)
	}
	if f.metrics != nil {
		repo = observability.InstrumentRepository(repo, f.metrics, name)
	}

	f.instances[name] = repo
	return repo, nil
}

// Register installs a hand-built repository for the named collection,
// bypassing the configured backend. Registered instances are owned by the
// caller and survive Reconfigure; tests use this to inject fakes.
func Register[T entity.Entity](f *Factory, name string, repo repository.Repository[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[name] = repo
}

// Reconfigure swaps the configuration, discards every memoized repository
// and closes owned database handles. Repositories obtained before the call
// keep working against the old backend until dropped; new Opens build
// against cfg.
func (f *Factory) Reconfigure(cfg *config.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.closeLocked()
	f.cfg = cfg
	f.logger.Info("configuration changed, repository cache invalidated",
		"storage_type", cfg.Storage.Type,
	)
	return err
}

// Close discards every memoized repository and closes owned database
// handles.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeLocked()
}

func (f *Factory) closeLocked() error {
	var errs []error
	if f.sqliteDB != nil {
		if err := f.sqliteDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing sqlite: %w", err))
		}
		f.sqliteDB = nil
	}
	if f.mysqlDB != nil {
		if err := f.mysqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing mysql: %w", err))
		}
		f.mysqlDB = nil
	}
	f.instances = make(map[string]any)
	return errors.Join(errs...)
}

func asRepository[T entity.Entity](name string, inst any) (repository.Repository[T], error) {
	repo, ok := inst.(repository.Repository[T])
	if !ok {
		return nil, fmt.Errorf("repository %q was built for a different entity type (%T)", name, inst)
	}
	return repo, nil
}
