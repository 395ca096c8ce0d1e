package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
)

// multipartThreshold is the payload size above which exports switch to the
// multipart upload path.
const multipartThreshold = 8 * 1024 * 1024

// Exporter serializes an owner's journal to JSONL and uploads the snapshot
// to blob storage. Snapshots are read-only copies; the primary store is
// never touched.
type Exporter struct {
	writer *Writer
	trades domain.TradeStore
}

// NewExporter creates an Exporter over the given writer and trade store.
func NewExporter(writer *Writer, trades domain.TradeStore) *Exporter {
	return &Exporter{
		writer: writer,
		trades: trades,
	}
}

// ExportTrades uploads every trade of the owner within the inclusive
// [from, to] exit-date range as newline-delimited JSON. It returns the blob
// path and the number of exported records. An empty range uploads nothing
// and returns an empty path.
func (e *Exporter) ExportTrades(ctx context.Context, ownerID string, from, to time.Time) (string, int, error) {
	trades, err := e.trades.ListByOwner(ctx, ownerID, domain.ListOpts{
		Since: &from,
		Until: &to,
	})
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: export query: %w", err)
	}
	if len(trades) == 0 {
		return "", 0, nil
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: export marshal: %w", err)
	}

	path := exportPath(ownerID, to)

	if int64(len(buf)) >= multipartThreshold {
		err = e.writer.PutMultipart(ctx, path, bytes.NewReader(buf), 0)
	} else {
		err = e.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: export upload: %w", err)
	}

	return path, len(trades), nil
}

// exportPath builds the S3 key for a journal snapshot, partitioned by the
// year-month of the range end.
//
//	exports/2025-08/owner-1.jsonl
func exportPath(ownerID string, to time.Time) string {
	return fmt.Sprintf("exports/%s/%s.jsonl", to.Format("2006-01"), ownerID)
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
