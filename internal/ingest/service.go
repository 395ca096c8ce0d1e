// Package ingest coordinates the ingestion paths: CSV file imports and
// brokerage syncs. Each path parses or fetches, normalizes, persists, and
// records an audit row. Each batch lands whole or not at all.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/marcwinn/traderhub/internal/broker"
	"github.com/marcwinn/traderhub/internal/csvimport"
	"github.com/marcwinn/traderhub/internal/domain"
	"github.com/marcwinn/traderhub/internal/normalize"
)

// Service runs the ingestion paths against the configured stores.
type Service struct {
	trades   domain.TradeStore
	imports  domain.ImportStore
	archive  domain.BlobWriter
	registry *broker.Registry
	limiter  domain.RateLimiter
	logger   *slog.Logger

	mu     sync.Mutex
	states map[string]*brokerState
}

// brokerState serializes all session use for one brokerage. The adapter may
// rewrite the session in place mid-call when it expires, so the session must
// never be visible to two calls at once.
type brokerState struct {
	mu      sync.Mutex
	session *broker.Session
}

// Options carries the optional collaborators. Archive and Limiter may be nil;
// the corresponding steps are skipped.
type Options struct {
	Archive domain.BlobWriter
	Limiter domain.RateLimiter
}

// New creates an ingestion service.
func New(trades domain.TradeStore, imports domain.ImportStore, registry *broker.Registry, opts Options, logger *slog.Logger) *Service {
	return &Service{
		trades:   trades,
		imports:  imports,
		archive:  opts.Archive,
		registry: registry,
		limiter:  opts.Limiter,
		logger:   logger.With(slog.String("component", "ingest")),
		states:   make(map[string]*brokerState),
	}
}

// ImportCSV parses a delimited file under the given column mapping,
// normalizes the result, archives the raw bytes, and persists the batch. A
// parse, validation, or persistence failure leaves the store untouched: a
// file either imports completely or not at all. A failed archive upload only
// logs; the audit record then carries no blob key.
func (s *Service) ImportCSV(ctx context.Context, ownerID string, raw []byte, mapping domain.ColumnMapping) (domain.ImportRecord, error) {
	importer, err := csvimport.NewImporter(mapping)
	if err != nil {
		return domain.ImportRecord{}, err
	}

	trades, err := importer.ImportFile(raw)
	if err != nil {
		return domain.ImportRecord{}, err
	}

	normalized, err := normalize.Batch(trades)
	if err != nil {
		return domain.ImportRecord{}, err
	}
	// Rows sharing an id are corrections within the file; the last one wins.
	normalized = normalize.Merge(nil, normalized)

	rec := domain.ImportRecord{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Source:     "csv",
		TradeCount: len(normalized),
		CreatedAt:  time.Now().UTC(),
	}

	if s.archive != nil {
		key := archiveKey(rec.ID, rec.CreatedAt)
		if err := s.archive.Put(ctx, key, bytes.NewReader(raw), "text/csv"); err != nil {
			// The raw-file copy is a convenience, not the system of record.
			// The import proceeds without it.
			s.logger.Warn("archiving raw file failed",
				slog.String("import_id", rec.ID),
				slog.String("blob_key", key),
				slog.String("error", err.Error()),
			)
		} else {
			rec.BlobKey = key
		}
	}

	if err := s.trades.BulkInsert(ctx, ownerID, normalized); err != nil {
		return domain.ImportRecord{}, fmt.Errorf("ingest: persist batch: %w", err)
	}
	if err := s.imports.Record(ctx, rec); err != nil {
		return domain.ImportRecord{}, fmt.Errorf("ingest: record import: %w", err)
	}

	s.logger.Info("csv import complete",
		slog.String("import_id", rec.ID),
		slog.String("owner_id", ownerID),
		slog.Int("trades", rec.TradeCount),
	)

	return rec, nil
}

// SyncBroker fetches trades from one registered brokerage for the inclusive
// [start, end] range and persists them. Sessions are cached per brokerage
// and reused across syncs; adapters handle their own expiry recovery.
func (s *Service) SyncBroker(ctx context.Context, ownerID, name string, start, end time.Time) (domain.ImportRecord, error) {
	b, err := s.registry.Get(name)
	if err != nil {
		return domain.ImportRecord{}, err
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, "broker:"+name); err != nil {
			return domain.ImportRecord{}, fmt.Errorf("ingest: rate limit %s: %w", name, err)
		}
	}

	trades, err := s.fetch(ctx, b, start, end)
	if err != nil {
		return domain.ImportRecord{}, err
	}

	normalized, err := normalize.Batch(trades)
	if err != nil {
		return domain.ImportRecord{}, err
	}
	// Brokerages may report the same execution twice; collapse by id, last
	// one wins.
	normalized = normalize.Merge(nil, normalized)

	if err := s.trades.BulkInsert(ctx, ownerID, normalized); err != nil {
		return domain.ImportRecord{}, fmt.Errorf("ingest: persist batch: %w", err)
	}

	rec := domain.ImportRecord{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Source:     name,
		TradeCount: len(normalized),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.imports.Record(ctx, rec); err != nil {
		return domain.ImportRecord{}, fmt.Errorf("ingest: record import: %w", err)
	}

	s.logger.Info("broker sync complete",
		slog.String("broker", name),
		slog.String("owner_id", ownerID),
		slog.Int("trades", rec.TradeCount),
	)

	return rec, nil
}

// SyncAll syncs every registered brokerage concurrently. Brokerages whose
// adapter is not implemented do not fail the run; their identifiers come
// back in the second return value so callers see what was not covered. The
// first real error cancels the remaining syncs.
func (s *Service) SyncAll(ctx context.Context, ownerID string, start, end time.Time) ([]domain.ImportRecord, []string, error) {
	names := s.registry.List()

	var mu sync.Mutex
	records := make([]domain.ImportRecord, 0, len(names))
	skipped := make([]string, 0)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			rec, err := s.SyncBroker(gctx, ownerID, name, start, end)
			if errors.Is(err, domain.ErrAdapterNotImplemented) {
				s.logger.Warn("skipping brokerage without adapter", slog.String("broker", name))
				mu.Lock()
				skipped = append(skipped, name)
				mu.Unlock()
				return nil
			}
			if err != nil {
				return fmt.Errorf("sync %s: %w", name, err)
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.Strings(skipped)
	return records, skipped, nil
}

// fetch runs the authenticated trade fetch while holding the brokerage's
// session lock, connecting on first use. The lock stays held for the whole
// call because the adapter may rewrite the session in place on expiry.
func (s *Service) fetch(ctx context.Context, b broker.Broker, start, end time.Time) ([]domain.Trade, error) {
	s.mu.Lock()
	st, ok := s.states[b.Name()]
	if !ok {
		st = &brokerState{}
		s.states[b.Name()] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.session == nil {
		session, err := b.Connect(ctx)
		if err != nil {
			return nil, err
		}
		st.session = session
	}
	return b.FetchTrades(ctx, st.session, start, end)
}

// archiveKey is the blob path for a raw import file, partitioned by month.
func archiveKey(importID string, at time.Time) string {
	return fmt.Sprintf("imports/%04d/%02d/%s.csv", at.Year(), at.Month(), importID)
}
