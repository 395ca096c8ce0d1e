package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcwinn/traderhub/internal/domain"
)

// ImportStore implements domain.ImportStore using PostgreSQL.
type ImportStore struct {
	pool *pgxpool.Pool
}

// NewImportStore creates a new ImportStore backed by the given connection pool.
func NewImportStore(pool *pgxpool.Pool) *ImportStore {
	return &ImportStore{pool: pool}
}

// Record writes the audit row for a completed ingestion.
func (s *ImportStore) Record(ctx context.Context, rec domain.ImportRecord) error {
	const query = `
		INSERT INTO imports (id, owner_id, source, trade_count, blob_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.OwnerID, rec.Source, rec.TradeCount, rec.BlobKey, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record import: %w", err)
	}
	return nil
}

// ListByOwner returns an owner's import history, newest first.
func (s *ImportStore) ListByOwner(ctx context.Context, ownerID string, opts domain.ListOpts) ([]domain.ImportRecord, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, owner_id, source, trade_count, blob_key, created_at
		FROM imports WHERE owner_id = $1`)
	args := []any{ownerID}

	if opts.Since != nil {
		args = append(args, *opts.Since)
		fmt.Fprintf(&sb, " AND created_at >= $%d", len(args))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		fmt.Fprintf(&sb, " AND created_at <= $%d", len(args))
	}

	sb.WriteString(" ORDER BY created_at DESC")

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list imports: %w", err)
	}
	defer rows.Close()

	var records []domain.ImportRecord
	for rows.Next() {
		var rec domain.ImportRecord
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Source,
			&rec.TradeCount, &rec.BlobKey, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan import: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list imports: %w", err)
	}
	return records, nil
}

// Get retrieves one import record by id.
func (s *ImportStore) Get(ctx context.Context, id string) (domain.ImportRecord, error) {
	const query = `SELECT id, owner_id, source, trade_count, blob_key, created_at
		FROM imports WHERE id = $1`

	var rec domain.ImportRecord
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.OwnerID, &rec.Source, &rec.TradeCount, &rec.BlobKey, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ImportRecord{}, fmt.Errorf("postgres: import %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ImportRecord{}, fmt.Errorf("postgres: get import: %w", err)
	}
	return rec, nil
}

// Compile-time interface check.
var _ domain.ImportStore = (*ImportStore)(nil)
