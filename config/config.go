// Package config holds storekit's runtime configuration: which storage
// backend repositories are built on, caching, telemetry and logging.
// Values come from an optional YAML file with environment-variable
// overrides (STORAGE_TYPE, STORAGE_SQLITE_PATH, STORAGE_MYSQL_HOST, ...).
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all storekit configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StorageConfig selects and configures the backing store.
type StorageConfig struct {
	Type   string       `mapstructure:"type"` // "memory", "sqlite", or "mysql"
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	MySQL  MySQLConfig  `mapstructure:"mysql"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"` // Database file path, use ":memory:" for in-memory
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Database  string        `mapstructure:"database"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	Charset   string        `mapstructure:"charset"`
	ParseTime bool          `mapstructure:"parse_time"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Pool      PoolConfig    `mapstructure:"pool"`
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// CacheConfig holds the read-through repository cache settings.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// TelemetryConfig holds metrics settings.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// applyDefaults sets default values for unset config options.
func (c *Config) applyDefaults() {
	if c.Storage.Type == "" {
		c.Storage.Type = "memory"
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "./data/storekit.db"
	}

	if c.Storage.MySQL.Port == 0 {
		c.Storage.MySQL.Port = 3306
	}
	if c.Storage.MySQL.Charset == "" {
		c.Storage.MySQL.Charset = "utf8mb4"
	}
	if !c.Storage.MySQL.ParseTime {
		c.Storage.MySQL.ParseTime = true
	}
	if c.Storage.MySQL.Timeout == 0 {
		c.Storage.MySQL.Timeout = 5 * time.Second
	}
	if c.Storage.MySQL.Pool.MaxOpenConns == 0 {
		c.Storage.MySQL.Pool.MaxOpenConns = 25
	}
	if c.Storage.MySQL.Pool.MaxIdleConns == 0 {
		c.Storage.MySQL.Pool.MaxIdleConns = 5
	}
	if c.Storage.MySQL.Pool.ConnMaxLifetime == 0 {
		c.Storage.MySQL.Pool.ConnMaxLifetime = 3 * time.Minute
	}
	if c.Storage.MySQL.Pool.ConnMaxIdleTime == 0 {
		c.Storage.MySQL.Pool.ConnMaxIdleTime = 1 * time.Minute
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.CleanupInterval == 0 {
		c.Cache.CleanupInterval = 1 * time.Minute
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "storekit"
	}
	if c.Telemetry.MetricsAddr == "" {
		c.Telemetry.MetricsAddr = ":9090"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// validate checks that required configuration is present.
func (c *Config) validate() error {
	validStorageTypes := map[string]bool{"memory": true, "sqlite": true, "mysql": true}
	if !validStorageTypes[strings.ToLower(c.Storage.Type)] {
		return fmt.Errorf("invalid storage type: %s (must be memory, sqlite, or mysql)", c.Storage.Type)
	}

	if strings.ToLower(c.Storage.Type) == "sqlite" && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path is required when storage type is sqlite")
	}

	if strings.ToLower(c.Storage.Type) == "mysql" {
		if c.Storage.MySQL.Host == "" {
			return fmt.Errorf("storage.mysql.host is required when storage type is mysql")
		}
		if c.Storage.MySQL.Database == "" {
			return fmt.Errorf("storage.mysql.database is required when storage type is mysql")
		}
		if c.Storage.MySQL.Username == "" {
			return fmt.Errorf("storage.mysql.username is required when storage type is mysql")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
