// Package mysql provides a MySQL-backed implementation of
// repository.Repository using the same document-table layout as the sqlite
// package: the entity serialized into a JSON column next to the metadata
// columns.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/castlebit/storekit/config"
)

// DB wraps a MySQL database connection with pooling configured from config.
type DB struct {
	*sql.DB
	cfg *config.MySQLConfig
}

// NewDB creates a new MySQL database connection with connection pooling.
func NewDB(cfg *config.MySQLConfig) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mysql config is required")
	}

	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{DB: db, cfg: cfg}, nil
}

// buildDSN renders the MySQL connection string.
func buildDSN(cfg *config.MySQLConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC&timeout=%s",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.Charset,
		cfg.ParseTime,
		cfg.Timeout,
	)
}

// Migrate creates the backing table for each named collection. It is
// idempotent and safe to call on every startup.
func (db *DB) Migrate(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		if err := validateIdent(name); err != nil {
			return fmt.Errorf("collection %q: %w", name, err)
		}
		ddl := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         VARCHAR(64) PRIMARY KEY,
				data       JSON NOT NULL,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL
			)`, name)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}
	return nil
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}
