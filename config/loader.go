package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader reads configuration from a YAML file and the environment, and can
// watch the file for changes.
type Loader struct {
	v    *viper.Viper
	path string
}

// configKeys lists every key viper should resolve. Unmarshal only sees keys
// viper knows about, so each one is bound explicitly to make bare
// environment-variable overrides work without a config file.
var configKeys = []string{
	"storage.type",
	"storage.sqlite.path",
	"storage.mysql.host",
	"storage.mysql.port",
	"storage.mysql.database",
	"storage.mysql.username",
	"storage.mysql.password",
	"storage.mysql.charset",
	"storage.mysql.parse_time",
	"storage.mysql.timeout",
	"storage.mysql.pool.max_open_conns",
	"storage.mysql.pool.max_idle_conns",
	"storage.mysql.pool.conn_max_lifetime",
	"storage.mysql.pool.conn_max_idle_time",
	"cache.enabled",
	"cache.ttl",
	"cache.cleanup_interval",
	"telemetry.enabled",
	"telemetry.service_name",
	"telemetry.metrics_addr",
	"logging.level",
	"logging.format",
}

// NewLoader creates a loader for the given config file path. An empty path
// means environment and defaults only.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return &Loader{v: v, path: path}
}

// Load reads, defaults and validates the configuration. A missing config
// file is not an error; environment variables and defaults still apply.
func (l *Loader) Load() (*Config, error) {
	if l.path != "" {
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}
	return l.parse()
}

func (l *Loader) parse() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Watch re-loads the file on every change and hands the fresh configuration
// to onChange. A change that fails to parse or validate is logged and
// dropped; the previous configuration stays in effect.
func (l *Loader) Watch(logger *slog.Logger, onChange func(*Config)) {
	if l.path == "" {
		return
	}
	l.v.OnConfigChange(func(event fsnotify.Event) {
		cfg, err := l.parse()
		if err != nil {
			logger.Warn("ignoring config change", "file", event.Name, "error", err)
			return
		}
		logger.Info("configuration reloaded", "file", event.Name)
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Load is a convenience wrapper for one-shot loading without a watcher.
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}
