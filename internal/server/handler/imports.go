package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
)

// maxImportBytes bounds the accepted CSV upload size.
const maxImportBytes = 32 << 20

// IngestService defines the ingestion operations the import handler requires.
type IngestService interface {
	ImportCSV(ctx context.Context, ownerID string, raw []byte, mapping domain.ColumnMapping) (domain.ImportRecord, error)
	SyncBroker(ctx context.Context, ownerID, name string, start, end time.Time) (domain.ImportRecord, error)
	SyncAll(ctx context.Context, ownerID string, start, end time.Time) ([]domain.ImportRecord, []string, error)
}

// ImportHandler serves the ingestion endpoints: CSV uploads, brokerage
// syncs, and the import audit history.
type ImportHandler struct {
	ingest  IngestService
	imports domain.ImportStore
	blobs   domain.BlobReader // nil when blob storage is disabled
	logger  *slog.Logger
}

// NewImportHandler creates an ImportHandler. blobs may be nil, in which case
// archived source files cannot be downloaded.
func NewImportHandler(ingest IngestService, imports domain.ImportStore, blobs domain.BlobReader, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		ingest:  ingest,
		imports: imports,
		blobs:   blobs,
		logger:  logHandler(logger, "imports"),
	}
}

// ImportCSV accepts a multipart upload with a "file" part containing the
// delimited text and a "mapping" part containing the column mapping as JSON.
// The whole file imports or nothing does.
// POST /api/imports?owner=...
func (h *ImportHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable file part")
		return
	}

	var mapping domain.ColumnMapping
	if err := json.Unmarshal([]byte(r.FormValue("mapping")), &mapping); err != nil {
		writeError(w, http.StatusBadRequest, "invalid mapping JSON")
		return
	}

	owner := ownerParam(r)
	rec, err := h.ingest.ImportCSV(r.Context(), owner, raw, mapping)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: csv import failed",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// listImportsResponse wraps the import history response.
type listImportsResponse struct {
	Imports []domain.ImportRecord `json:"imports"`
}

// ListImports returns an owner's import audit history, newest first.
// GET /api/imports?owner=...
func (h *ImportHandler) ListImports(w http.ResponseWriter, r *http.Request) {
	owner := ownerParam(r)

	records, err := h.imports.ListByOwner(r.Context(), owner, parseListOpts(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if records == nil {
		records = []domain.ImportRecord{}
	}
	writeJSON(w, http.StatusOK, listImportsResponse{Imports: records})
}

// DownloadImport streams the archived source file of one import record.
// GET /api/imports/{id}/file
func (h *ImportHandler) DownloadImport(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		writeError(w, http.StatusNotImplemented, "blob storage is not configured")
		return
	}

	rec, err := h.imports.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rec.BlobKey == "" {
		writeError(w, http.StatusNotFound, "import has no archived source file")
		return
	}

	body, err := h.blobs.Get(r.Context(), rec.BlobKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.ID+`.csv"`)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "handler: import download interrupted",
			slog.String("import_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
}

// SyncBroker fetches and persists trades from one brokerage.
// POST /api/sync/{broker}?owner=...&since=...&until=...
func (h *ImportHandler) SyncBroker(w http.ResponseWriter, r *http.Request) {
	owner := ownerParam(r)
	name := pathParam(r, "broker")
	start, end := syncRange(r)

	rec, err := h.ingest.SyncBroker(r.Context(), owner, name, start, end)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: broker sync failed",
			slog.String("owner", owner),
			slog.String("broker", name),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// syncAllResponse wraps the sync-all response. Skipped lists the registered
// brokerages that have no live adapter yet.
type syncAllResponse struct {
	Imports []domain.ImportRecord `json:"imports"`
	Skipped []string              `json:"skipped"`
}

// SyncAll fetches and persists trades from every registered brokerage.
// POST /api/sync?owner=...&since=...&until=...
func (h *ImportHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	owner := ownerParam(r)
	start, end := syncRange(r)

	records, skipped, err := h.ingest.SyncAll(r.Context(), owner, start, end)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: sync all failed",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	if records == nil {
		records = []domain.ImportRecord{}
	}
	if skipped == nil {
		skipped = []string{}
	}
	writeJSON(w, http.StatusCreated, syncAllResponse{Imports: records, Skipped: skipped})
}

// syncRange reads the inclusive sync window from the query string. The
// default window is the thirty days ending now.
func syncRange(r *http.Request) (time.Time, time.Time) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if t, ok := parseTimeParam(r, "since"); ok {
		start = t
	}
	if t, ok := parseTimeParam(r, "until"); ok {
		end = t
	}
	return start, end
}
