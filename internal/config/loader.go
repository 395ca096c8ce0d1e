package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TRADERHUB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TRADERHUB_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// --- Postgres ---
	setStr(&cfg.Postgres.DSN, "TRADERHUB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "TRADERHUB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TRADERHUB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TRADERHUB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TRADERHUB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TRADERHUB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TRADERHUB_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TRADERHUB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TRADERHUB_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TRADERHUB_POSTGRES_RUN_MIGRATIONS")

	// --- Redis ---
	setBool(&cfg.Redis.Enabled, "TRADERHUB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "TRADERHUB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRADERHUB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRADERHUB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRADERHUB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRADERHUB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRADERHUB_REDIS_TLS_ENABLED")

	// --- S3 ---
	setBool(&cfg.S3.Enabled, "TRADERHUB_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "TRADERHUB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TRADERHUB_S3_REGION")
	setStr(&cfg.S3.Bucket, "TRADERHUB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TRADERHUB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TRADERHUB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TRADERHUB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TRADERHUB_S3_FORCE_PATH_STYLE")

	// --- Tradovate ---
	setBool(&cfg.Tradovate.Enabled, "TRADERHUB_TRADOVATE_ENABLED")
	setStr(&cfg.Tradovate.BaseURL, "TRADERHUB_TRADOVATE_BASE_URL")
	setStr(&cfg.Tradovate.Username, "TRADERHUB_TRADOVATE_USERNAME")
	setStr(&cfg.Tradovate.Password, "TRADERHUB_TRADOVATE_PASSWORD")
	setStr(&cfg.Tradovate.EncryptedPasswordPath, "TRADERHUB_TRADOVATE_ENCRYPTED_PASSWORD_PATH")
	setStr(&cfg.Tradovate.PasswordKey, "TRADERHUB_TRADOVATE_PASSWORD_KEY")
	setStr(&cfg.Tradovate.AppID, "TRADERHUB_TRADOVATE_APP_ID")
	setStr(&cfg.Tradovate.CID, "TRADERHUB_TRADOVATE_CID")

	// --- TradeZero ---
	setBool(&cfg.TradeZero.Enabled, "TRADERHUB_TRADEZERO_ENABLED")
	setStr(&cfg.TradeZero.BaseURL, "TRADERHUB_TRADEZERO_BASE_URL")
	setStr(&cfg.TradeZero.APIKey, "TRADERHUB_TRADEZERO_API_KEY")
	setStr(&cfg.TradeZero.APISecret, "TRADERHUB_TRADEZERO_API_SECRET")
	setStr(&cfg.TradeZero.EncryptedSecretPath, "TRADERHUB_TRADEZERO_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.TradeZero.SecretKey, "TRADERHUB_TRADEZERO_SECRET_KEY")

	// --- Rate limit ---
	setInt(&cfg.RateLimit.Requests, "TRADERHUB_RATE_LIMIT_REQUESTS")
	setDuration(&cfg.RateLimit.Window, "TRADERHUB_RATE_LIMIT_WINDOW")

	// --- Sync ---
	setStr(&cfg.Sync.OwnerID, "TRADERHUB_SYNC_OWNER_ID")
	setDuration(&cfg.Sync.Lookback, "TRADERHUB_SYNC_LOOKBACK")

	// --- Server ---
	setBool(&cfg.Server.Enabled, "TRADERHUB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "TRADERHUB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TRADERHUB_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIToken, "TRADERHUB_SERVER_API_TOKEN")

	// --- Top-level ---
	setStr(&cfg.Mode, "TRADERHUB_MODE")
	setStr(&cfg.LogLevel, "TRADERHUB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
