package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcwinn/traderhub/internal/domain"
	"github.com/marcwinn/traderhub/internal/server"
	"github.com/marcwinn/traderhub/internal/server/handler"
)

// shutdownGrace bounds how long in-flight HTTP requests may run after a
// shutdown signal before the listener is torn down.
const shutdownGrace = 10 * time.Second

// ServerMode runs the HTTP API until the context is cancelled, then shuts the
// listener down gracefully.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode",
		slog.Int("port", a.cfg.Server.Port),
	)

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger, deps.HealthChecks),
		Trades:    handler.NewTradeHandler(deps.TradeStore, a.logger),
		Imports:   handler.NewImportHandler(deps.Ingest, deps.ImportStore, deps.BlobReader, a.logger),
		Analytics: handler.NewAnalyticsHandler(deps.TradeStore, a.logger),
	}
	if deps.Exporter != nil {
		handlers.Exports = handler.NewExportHandler(deps.Exporter, deps.BlobLister, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIToken:    a.cfg.Server.APIToken,
		Limiter:     deps.RateLimiter,
	}, handlers, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// SyncMode runs one synchronization pass over every registered brokerage for
// the configured owner and lookback window, then exits.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	end := time.Now().UTC()
	start := end.Add(-a.cfg.Sync.Lookback.Duration)

	a.logger.InfoContext(ctx, "starting sync mode",
		slog.String("owner_id", a.cfg.Sync.OwnerID),
		slog.Time("start", start),
		slog.Time("end", end),
	)

	records, skipped, err := deps.Ingest.SyncAll(ctx, a.cfg.Sync.OwnerID, start, end)
	if err != nil {
		return fmt.Errorf("app: sync: %w", err)
	}
	if len(skipped) > 0 {
		a.logger.WarnContext(ctx, "brokerages without adapters were skipped",
			slog.Any("brokers", skipped),
		)
	}

	total := 0
	for _, rec := range records {
		total += rec.TradeCount
		a.logger.InfoContext(ctx, "brokerage synced",
			slog.String("source", rec.Source),
			slog.Int("trades", rec.TradeCount),
		)
	}
	a.logger.InfoContext(ctx, "sync complete",
		slog.Int("brokerages", len(records)),
		slog.Int("trades", total),
	)
	return nil
}

// ImportMode imports a single CSV file under a column mapping read from a
// JSON file, then exits. Both paths must be set via SetImportArgs.
func (a *App) ImportMode(ctx context.Context, deps *Dependencies) error {
	if a.importPath == "" || a.mappingPath == "" {
		return errors.New("app: import mode requires -file and -mapping")
	}

	a.logger.InfoContext(ctx, "starting import mode",
		slog.String("file", a.importPath),
		slog.String("mapping", a.mappingPath),
	)

	raw, err := os.ReadFile(a.importPath)
	if err != nil {
		return fmt.Errorf("app: reading import file: %w", err)
	}

	mappingData, err := os.ReadFile(a.mappingPath)
	if err != nil {
		return fmt.Errorf("app: reading mapping file: %w", err)
	}
	var mapping domain.ColumnMapping
	if err := json.Unmarshal(mappingData, &mapping); err != nil {
		return fmt.Errorf("app: parsing mapping file: %w", err)
	}

	rec, err := deps.Ingest.ImportCSV(ctx, a.cfg.Sync.OwnerID, raw, mapping)
	if err != nil {
		return fmt.Errorf("app: import: %w", err)
	}

	a.logger.InfoContext(ctx, "import complete",
		slog.String("import_id", rec.ID),
		slog.Int("trades", rec.TradeCount),
		slog.String("blob_key", rec.BlobKey),
	)
	return nil
}
