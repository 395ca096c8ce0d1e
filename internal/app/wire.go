package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/marcwinn/traderhub/internal/blob/s3"
	"github.com/marcwinn/traderhub/internal/broker"
	"github.com/marcwinn/traderhub/internal/broker/tradezero"
	"github.com/marcwinn/traderhub/internal/broker/tradovate"
	"github.com/marcwinn/traderhub/internal/cache/redis"
	"github.com/marcwinn/traderhub/internal/config"
	"github.com/marcwinn/traderhub/internal/crypto"
	"github.com/marcwinn/traderhub/internal/domain"
	"github.com/marcwinn/traderhub/internal/ingest"
	"github.com/marcwinn/traderhub/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	TradeStore  domain.TradeStore
	ImportStore domain.ImportStore

	// Rate limiting (nil when Redis is disabled)
	RateLimiter domain.RateLimiter

	// Blob storage (nil when S3 is disabled)
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	BlobLister domain.BlobLister
	Exporter   *s3blob.Exporter

	// Brokerage adapters
	Registry *broker.Registry

	// Ingestion
	Ingest *ingest.Service

	// Per-backend pings for the health endpoint, keyed by dependency name.
	HealthChecks map[string]func(context.Context) error
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		HealthChecks: make(map[string]func(context.Context) error),
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.TradeStore = postgres.NewTradeStore(pool)
	deps.ImportStore = postgres.NewImportStore(pool)
	deps.HealthChecks["postgres"] = pgClient.Ping

	// --- Redis (optional, backs the brokerage rate limiter) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RateLimiter = redis.NewRateLimiter(
			redisClient,
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window.Duration,
		)
		deps.HealthChecks["redis"] = redisClient.Ping
	}

	// --- S3 blob storage (optional, raw import archive and exports) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		writer := s3blob.NewWriter(s3Client)
		reader := s3blob.NewReader(s3Client)
		deps.BlobWriter = writer
		deps.BlobReader = reader
		deps.BlobLister = reader
		deps.Exporter = s3blob.NewExporter(writer, deps.TradeStore)
		deps.HealthChecks["s3"] = s3Client.Health
	}

	// --- Brokerage adapters ---
	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Registry = registry

	// --- Ingestion service ---
	deps.Ingest = ingest.New(
		deps.TradeStore,
		deps.ImportStore,
		deps.Registry,
		ingest.Options{
			Archive: deps.BlobWriter,
			Limiter: deps.RateLimiter,
		},
		logger,
	)

	return deps, cleanup, nil
}

// buildRegistry wires the configured live brokerage adapters and registers
// stubs for the declared-but-unimplemented ones.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*broker.Registry, error) {
	registry := broker.NewRegistry()

	if cfg.Tradovate.Enabled {
		password, err := crypto.LoadSecret(crypto.SecretConfig{
			RawSecret:     cfg.Tradovate.Password,
			EncryptedPath: cfg.Tradovate.EncryptedPasswordPath,
			Password:      cfg.Tradovate.PasswordKey,
		})
		if err != nil {
			return nil, fmt.Errorf("wire: tradovate password: %w", err)
		}
		registry.Register(tradovate.Name, tradovate.New(tradovate.Config{
			BaseURL:  cfg.Tradovate.BaseURL,
			Username: cfg.Tradovate.Username,
			Password: password,
			AppID:    cfg.Tradovate.AppID,
			CID:      cfg.Tradovate.CID,
		}, logger))
	}

	if cfg.TradeZero.Enabled {
		secret, err := crypto.LoadSecret(crypto.SecretConfig{
			RawSecret:     cfg.TradeZero.APISecret,
			EncryptedPath: cfg.TradeZero.EncryptedSecretPath,
			Password:      cfg.TradeZero.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("wire: tradezero secret: %w", err)
		}
		registry.Register(tradezero.Name, tradezero.New(tradezero.Config{
			BaseURL:   cfg.TradeZero.BaseURL,
			APIKey:    cfg.TradeZero.APIKey,
			APISecret: secret,
		}, logger))
	}

	// Declared adapters without a live integration yet. SyncAll skips them
	// with a warning instead of treating them as empty accounts.
	for _, name := range []string{
		broker.NameInteractiveBrokers,
		broker.NameTDAmeritrade,
		broker.NameRobinhood,
	} {
		registry.Register(name, broker.NewStub(name))
	}

	return registry, nil
}
