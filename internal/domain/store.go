package domain

import (
	"context"
	"io"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// TradePatch is a partial update applied to an existing trade. Nil fields are
// left untouched.
type TradePatch struct {
	Symbol     *string    `json:"symbol,omitempty"`
	Side       *Side      `json:"side,omitempty"`
	Quantity   *float64   `json:"quantity,omitempty"`
	EntryPrice *float64   `json:"entryPrice,omitempty"`
	ExitPrice  *float64   `json:"exitPrice,omitempty"`
	EntryDate  *time.Time `json:"entryDate,omitempty"`
	ExitDate   *time.Time `json:"exitDate,omitempty"`
	Pnl        *float64   `json:"pnl,omitempty"`
	Fees       *float64   `json:"fees,omitempty"`
	Commission *float64   `json:"commission,omitempty"`
	Strategy   *string    `json:"strategy,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
}

// TradeStore is the persistence contract for canonical trades. The
// normalization engine's output is the exact shape passed to BulkInsert.
type TradeStore interface {
	Create(ctx context.Context, ownerID string, trade Trade) error
	Update(ctx context.Context, id string, patch TradePatch) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Trade, error)
	ListByOwner(ctx context.Context, ownerID string, opts ListOpts) ([]Trade, error)
	// BulkInsert writes a batch atomically. A trade whose id already exists
	// is treated as a correction and replaces the prior record.
	BulkInsert(ctx context.Context, ownerID string, trades []Trade) error
}

// ImportRecord is the audit row written after each completed ingestion.
type ImportRecord struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	Source     string    `json:"source"` // "csv" or a broker identifier
	TradeCount int       `json:"tradeCount"`
	BlobKey    string    `json:"blobKey,omitempty"` // archive location of the raw file, empty for broker syncs
	CreatedAt  time.Time `json:"createdAt"`
}

// ImportStore persists the audit trail of completed imports.
type ImportStore interface {
	Record(ctx context.Context, rec ImportRecord) error
	ListByOwner(ctx context.Context, ownerID string, opts ListOpts) ([]ImportRecord, error)
	Get(ctx context.Context, id string) (ImportRecord, error)
}

// BlobWriter uploads an object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader downloads an object from blob storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
}

// BlobLister enumerates stored objects under a key prefix.
type BlobLister interface {
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// BlobInfo describes one stored object.
type BlobInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// RateLimiter limits outbound calls per key using a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}
