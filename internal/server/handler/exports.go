package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
)

// ExportService defines the snapshot-export operation this handler requires.
type ExportService interface {
	ExportTrades(ctx context.Context, ownerID string, from, to time.Time) (string, int, error)
}

// exportPrefix is the key prefix the exporter writes snapshots under.
const exportPrefix = "exports/"

// ExportHandler serves journal snapshot exports to blob storage and the
// listing of snapshots already stored.
type ExportHandler struct {
	exports ExportService
	blobs   domain.BlobLister
	logger  *slog.Logger
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exports ExportService, blobs domain.BlobLister, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exports: exports,
		blobs:   blobs,
		logger:  logHandler(logger, "exports"),
	}
}

// exportResponse describes a completed snapshot export.
type exportResponse struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// Export uploads the owner's trades for the requested range as a JSONL
// snapshot and returns the blob path.
// POST /api/exports?owner=...&from=...&to=...
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	from, to, ok := calendarRange(w, r)
	if !ok {
		return
	}

	owner := ownerParam(r)
	path, count, err := h.exports.ExportTrades(r.Context(), owner, from, to)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: export failed",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, exportResponse{Path: path, Count: count})
}

// listExportsResponse wraps the stored-snapshot listing.
type listExportsResponse struct {
	Exports []domain.BlobInfo `json:"exports"`
}

// ListExports enumerates the snapshot files already stored in the archive
// bucket.
// GET /api/exports
func (h *ExportHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	infos, err := h.blobs.List(r.Context(), exportPrefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list exports failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	if infos == nil {
		infos = []domain.BlobInfo{}
	}
	writeJSON(w, http.StatusOK, listExportsResponse{Exports: infos})
}
