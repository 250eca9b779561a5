package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads and validates configuration.
type Loader struct {
	configFile string
	envPrefix  string
}

// NewLoader creates a Loader. configFile may be empty, in which case
// only defaults and environment variables apply. envPrefix is the
// prefix for environment overrides, e.g. "BOOKFOLIO".
func NewLoader(configFile, envPrefix string) *Loader {
	return &Loader{configFile: configFile, envPrefix: envPrefix}
}

// Load reads configuration with precedence ENV > file > defaults and
// validates the result.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (l *Loader) setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("service.name", d.Service.Name)
	v.SetDefault("service.environment", d.Service.Environment)

	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", d.HTTP.IdleTimeout)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.addr", d.Cache.Addr)
	v.SetDefault("cache.password", d.Cache.Password)
	v.SetDefault("cache.db", d.Cache.DB)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks cross-field constraints.
func Validate(cfg *Config) error {
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", cfg.HTTP.Port)
	}

	switch cfg.Database.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverMySQL, cfg.Database.Driver)
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn must not be empty")
	}
	if cfg.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be >= 1, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must be >= 0, got %d", cfg.Database.MaxIdleConns)
	}

	if cfg.Cache.Enabled && cfg.Cache.Addr == "" {
		return fmt.Errorf("cache.addr must not be empty when the cache is enabled")
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond < 1 {
			return fmt.Errorf("rate_limit.requests_per_second must be >= 1, got %d", cfg.RateLimit.RequestsPerSecond)
		}
		if cfg.RateLimit.Burst < cfg.RateLimit.RequestsPerSecond {
			return fmt.Errorf("rate_limit.burst must be >= requests_per_second")
		}
	}

	return nil
}
