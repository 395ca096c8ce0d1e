// Package config defines the top-level configuration for the trade journal
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by TRADERHUB_* environment variables.
type Config struct {
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Tradovate TradovateConfig `toml:"tradovate"`
	TradeZero TradeZeroConfig `toml:"tradezero"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Sync      SyncConfig      `toml:"sync"`
	Server    ServerConfig    `toml:"server"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the raw import
// archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// TradovateConfig holds Tradovate brokerage credentials. The password may be
// supplied in the clear or as an encrypted file plus decryption password.
type TradovateConfig struct {
	Enabled               bool   `toml:"enabled"`
	BaseURL               string `toml:"base_url"`
	Username              string `toml:"username"`
	Password              string `toml:"password"`
	EncryptedPasswordPath string `toml:"encrypted_password_path"`
	PasswordKey           string `toml:"password_key"`
	AppID                 string `toml:"app_id"`
	CID                   string `toml:"cid"`
}

// TradeZeroConfig holds TradeZero API key credentials. The secret may be
// supplied in the clear or as an encrypted file plus decryption password.
type TradeZeroConfig struct {
	Enabled             bool   `toml:"enabled"`
	BaseURL             string `toml:"base_url"`
	APIKey              string `toml:"api_key"`
	APISecret           string `toml:"api_secret"`
	EncryptedSecretPath string `toml:"encrypted_secret_path"`
	SecretKey           string `toml:"secret_key"`
}

// RateLimitConfig bounds outbound brokerage calls.
type RateLimitConfig struct {
	Requests int      `toml:"requests"`
	Window   duration `toml:"window"`
}

// SyncConfig controls the sync mode run.
type SyncConfig struct {
	OwnerID  string   `toml:"owner_id"`
	Lookback duration `toml:"lookback"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIToken    string   `toml:"api_token"`
}

// duration wraps time.Duration so TOML values like "30s" parse naturally.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Defaults returns a Config populated with development-friendly defaults.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "traderhub",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        true,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "traderhub-imports",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Tradovate: TradovateConfig{
			BaseURL: "https://live.tradovate.com/v1",
			AppID:   "traderhub",
		},
		TradeZero: TradeZeroConfig{
			BaseURL: "https://api.tradezero.com",
		},
		RateLimit: RateLimitConfig{
			Requests: 2,
			Window:   duration{time.Second},
		},
		Sync: SyncConfig{
			OwnerID:  "default",
			Lookback: duration{30 * 24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"sync":   true,
	"import": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, sync, import)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Tradovate: password in the clear or encrypted, never neither.
	if c.Tradovate.Enabled {
		if c.Tradovate.Username == "" {
			errs = append(errs, "tradovate: username must not be empty when enabled")
		}
		if c.Tradovate.Password == "" && c.Tradovate.EncryptedPasswordPath == "" {
			errs = append(errs, "tradovate: either password or encrypted_password_path must be set")
		}
		if c.Tradovate.EncryptedPasswordPath != "" && c.Tradovate.PasswordKey == "" {
			errs = append(errs, "tradovate: password_key is required when encrypted_password_path is set")
		}
	}

	// TradeZero
	if c.TradeZero.Enabled {
		if c.TradeZero.APIKey == "" {
			errs = append(errs, "tradezero: api_key must not be empty when enabled")
		}
		if c.TradeZero.APISecret == "" && c.TradeZero.EncryptedSecretPath == "" {
			errs = append(errs, "tradezero: either api_secret or encrypted_secret_path must be set")
		}
		if c.TradeZero.EncryptedSecretPath != "" && c.TradeZero.SecretKey == "" {
			errs = append(errs, "tradezero: secret_key is required when encrypted_secret_path is set")
		}
	}

	// Rate limit
	if c.RateLimit.Requests < 1 {
		errs = append(errs, "rate_limit: requests must be >= 1")
	}
	if c.RateLimit.Window.Duration <= 0 {
		errs = append(errs, "rate_limit: window must be positive")
	}

	// Sync
	if c.Mode == "sync" {
		if c.Sync.OwnerID == "" {
			errs = append(errs, "sync: owner_id must not be empty in sync mode")
		}
		if c.Sync.Lookback.Duration <= 0 {
			errs = append(errs, "sync: lookback must be positive")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
