package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
mode = "sync"
log_level = "debug"

[postgres]
host = "db.internal"
database = "journal"
user = "journal"
password = "pw"

[tradovate]
enabled = true
username = "trader"
password = "hunter2"

[rate_limit]
requests = 5
window = "2s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "sync", cfg.Mode)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "db.internal", cfg.Postgres.Host)
	// Defaults survive a partial file.
	require.Equal(t, 5432, cfg.Postgres.Port)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.True(t, cfg.Tradovate.Enabled)
	require.Equal(t, 5, cfg.RateLimit.Requests)
	require.Equal(t, 2*time.Second, cfg.RateLimit.Window.Duration)

	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[postgres]
password = "from-file"
`)

	t.Setenv("TRADERHUB_POSTGRES_PASSWORD", "from-env")
	t.Setenv("TRADERHUB_SERVER_PORT", "9000")
	t.Setenv("TRADERHUB_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRADERHUB_MODE", "import")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "from-env", cfg.Postgres.Password)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	require.Equal(t, "import", cfg.Mode)
}

func TestValidate_Defaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "dance"
	cfg.Postgres.Host = ""
	cfg.Tradovate.Enabled = true // no credentials

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown mode")
	require.Contains(t, err.Error(), "postgres: host")
	require.Contains(t, err.Error(), "tradovate: username")
}

func TestValidate_EncryptedCredentialNeedsKey(t *testing.T) {
	cfg := Defaults()
	cfg.TradeZero.Enabled = true
	cfg.TradeZero.APIKey = "key"
	cfg.TradeZero.EncryptedSecretPath = "/secrets/tz.enc"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "tradezero: secret_key is required")
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "pw"
	cfg.S3.SecretKey = "sk"
	cfg.TradeZero.APISecret = "secret"

	red := RedactedConfig(&cfg)
	require.Equal(t, "***", red.Postgres.Password)
	require.Equal(t, "***", red.S3.SecretKey)
	require.Equal(t, "***", red.TradeZero.APISecret)

	// The original is untouched.
	require.Equal(t, "pw", cfg.Postgres.Password)

	red.Server.CORSOrigins[0] = "mutated"
	require.NotEqual(t, "mutated", cfg.Server.CORSOrigins[0])
}
