package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcwinn/traderhub/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, symbol, side, quantity, entry_price, exit_price,
	entry_date, exit_date, pnl, fees, commission, strategy, broker, tags,
	notes, exec_time, exec_venue, exec_order_id`

func scanTrade(row pgx.Row) (domain.Trade, error) {
	var t domain.Trade
	err := row.Scan(
		&t.ID, &t.Symbol, &t.Side, &t.Quantity, &t.EntryPrice, &t.ExitPrice,
		&t.EntryDate, &t.ExitDate, &t.Pnl, &t.Fees, &t.Commission,
		&t.Strategy, &t.Broker, &t.Tags,
		&t.Notes, &t.Execution.Time, &t.Execution.Venue, &t.Execution.OrderID,
	)
	return t, err
}

func scanTradeRows(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Create inserts a single trade. A duplicate id fails with ErrAlreadyExists.
func (s *TradeStore) Create(ctx context.Context, ownerID string, t domain.Trade) error {
	const query = `
		INSERT INTO trades (
			id, owner_id, symbol, side, quantity, entry_price, exit_price,
			entry_date, exit_date, pnl, fees, commission, strategy, broker,
			tags, notes, exec_time, exec_venue, exec_order_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19
		)`

	_, err := s.pool.Exec(ctx, query,
		t.ID, ownerID, t.Symbol, t.Side, t.Quantity, t.EntryPrice, t.ExitPrice,
		t.EntryDate, t.ExitDate, t.Pnl, t.Fees, t.Commission, t.Strategy, t.Broker,
		t.Tags, t.Notes, t.Execution.Time, t.Execution.Venue, t.Execution.OrderID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("postgres: trade %s: %w", t.ID, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("postgres: create trade: %w", err)
	}
	return nil
}

// Update applies a partial update to an existing trade. Nil patch fields are
// left untouched. Updating a missing id fails with ErrNotFound.
func (s *TradeStore) Update(ctx context.Context, id string, patch domain.TradePatch) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Symbol != nil {
		add("symbol", *patch.Symbol)
	}
	if patch.Side != nil {
		add("side", *patch.Side)
	}
	if patch.Quantity != nil {
		add("quantity", *patch.Quantity)
	}
	if patch.EntryPrice != nil {
		add("entry_price", *patch.EntryPrice)
	}
	if patch.ExitPrice != nil {
		add("exit_price", *patch.ExitPrice)
	}
	if patch.EntryDate != nil {
		add("entry_date", *patch.EntryDate)
	}
	if patch.ExitDate != nil {
		add("exit_date", *patch.ExitDate)
	}
	if patch.Pnl != nil {
		add("pnl", *patch.Pnl)
	}
	if patch.Fees != nil {
		add("fees", *patch.Fees)
	}
	if patch.Commission != nil {
		add("commission", *patch.Commission)
	}
	if patch.Strategy != nil {
		add("strategy", *patch.Strategy)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.Tags != nil {
		add("tags", patch.Tags)
	}

	query := fmt.Sprintf("UPDATE trades SET %s WHERE id = $1", strings.Join(sets, ", "))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: update trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: trade %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a trade by id. A missing id fails with ErrNotFound.
func (s *TradeStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM trades WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: trade %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Get retrieves a trade by id.
func (s *TradeStore) Get(ctx context.Context, id string) (domain.Trade, error) {
	query := fmt.Sprintf("SELECT %s FROM trades WHERE id = $1", tradeSelectCols)

	t, err := scanTrade(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Trade{}, fmt.Errorf("postgres: trade %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Trade{}, fmt.Errorf("postgres: get trade: %w", err)
	}
	return t, nil
}

// ListByOwner returns an owner's trades ordered by exit date ascending, with
// optional pagination and exit-date range filtering.
func (s *TradeStore) ListByOwner(ctx context.Context, ownerID string, opts domain.ListOpts) ([]domain.Trade, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM trades WHERE owner_id = $1", tradeSelectCols)
	args := []any{ownerID}

	if opts.Since != nil {
		args = append(args, *opts.Since)
		fmt.Fprintf(&sb, " AND exit_date >= $%d", len(args))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		fmt.Fprintf(&sb, " AND exit_date <= $%d", len(args))
	}

	sb.WriteString(" ORDER BY exit_date ASC, id ASC")

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
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return trades, nil
}

// BulkInsert writes a batch atomically within one transaction. A trade whose
// id already exists is treated as a correction and replaces the prior record.
func (s *TradeStore) BulkInsert(ctx context.Context, ownerID string, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	const query = `
		INSERT INTO trades (
			id, owner_id, symbol, side, quantity, entry_price, exit_price,
			entry_date, exit_date, pnl, fees, commission, strategy, broker,
			tags, notes, exec_time, exec_venue, exec_order_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19
		) ON CONFLICT (id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			side = EXCLUDED.side,
			quantity = EXCLUDED.quantity,
			entry_price = EXCLUDED.entry_price,
			exit_price = EXCLUDED.exit_price,
			entry_date = EXCLUDED.entry_date,
			exit_date = EXCLUDED.exit_date,
			pnl = EXCLUDED.pnl,
			fees = EXCLUDED.fees,
			commission = EXCLUDED.commission,
			strategy = EXCLUDED.strategy,
			broker = EXCLUDED.broker,
			tags = EXCLUDED.tags,
			notes = EXCLUDED.notes,
			exec_time = EXCLUDED.exec_time,
			exec_venue = EXCLUDED.exec_venue,
			exec_order_id = EXCLUDED.exec_order_id,
			updated_at = NOW()`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(query,
			t.ID, ownerID, t.Symbol, t.Side, t.Quantity, t.EntryPrice, t.ExitPrice,
			t.EntryDate, t.ExitDate, t.Pnl, t.Fees, t.Commission, t.Strategy, t.Broker,
			t.Tags, t.Notes, t.Execution.Time, t.Execution.Venue, t.Execution.OrderID,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range trades {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("postgres: bulk insert trade %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit bulk insert: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)
