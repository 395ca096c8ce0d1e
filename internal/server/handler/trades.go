package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/marcwinn/traderhub/internal/domain"
	"github.com/marcwinn/traderhub/internal/normalize"
)

// TradeHandler serves trade CRUD endpoints.
type TradeHandler struct {
	trades domain.TradeStore
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler with the given store and logger.
func NewTradeHandler(trades domain.TradeStore, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		trades: trades,
		logger: logHandler(logger, "trades"),
	}
}

// listTradesResponse wraps the list trades response.
type listTradesResponse struct {
	Trades []domain.Trade `json:"trades"`
}

// ListTrades returns an owner's trades.
// GET /api/trades?owner=...&limit=...&offset=...&since=...&until=...
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	owner := ownerParam(r)

	trades, err := h.trades.ListByOwner(r.Context(), owner, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list trades failed",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	if trades == nil {
		trades = []domain.Trade{}
	}
	writeJSON(w, http.StatusOK, listTradesResponse{Trades: trades})
}

// GetTrade returns a single trade by id.
// GET /api/trades/{id}
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := h.trades.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// CreateTrade records one manually entered trade. The body is normalized and
// validated like any other ingestion source.
// POST /api/trades?owner=...
func (h *TradeHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var trade domain.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	batch, err := normalize.Batch([]domain.Trade{trade})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	owner := ownerParam(r)
	if err := h.trades.Create(r.Context(), owner, batch[0]); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create trade failed",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, batch[0])
}

// UpdateTrade applies a partial update to an existing trade.
// PATCH /api/trades/{id}
func (h *TradeHandler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	var patch domain.TradePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := pathParam(r, "id")
	if err := h.trades.Update(r.Context(), id, patch); err != nil {
		writeDomainError(w, err)
		return
	}

	trade, err := h.trades.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// DeleteTrade removes a trade by id.
// DELETE /api/trades/{id}
func (h *TradeHandler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.trades.Delete(r.Context(), pathParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
