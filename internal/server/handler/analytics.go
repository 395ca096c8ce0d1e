package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/marcwinn/traderhub/internal/analytics"
	"github.com/marcwinn/traderhub/internal/domain"
)

// AnalyticsHandler serves the derived-statistics endpoints. Every response
// is recomputed from the owner's working set on each request; nothing here
// is cached or persisted.
type AnalyticsHandler struct {
	trades domain.TradeStore
	logger *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(trades domain.TradeStore, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		trades: trades,
		logger: logHandler(logger, "analytics"),
	}
}

// workingSet loads the owner's trades for the optional since/until range.
func (h *AnalyticsHandler) workingSet(w http.ResponseWriter, r *http.Request) ([]domain.Trade, bool) {
	opts := domain.ListOpts{}
	if t, ok := parseTimeParam(r, "since"); ok {
		opts.Since = &t
	}
	if t, ok := parseTimeParam(r, "until"); ok {
		opts.Until = &t
	}

	owner := ownerParam(r)
	trades, err := h.trades.ListByOwner(r.Context(), owner, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: load working set failed",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return nil, false
	}
	return trades, true
}

// Performance returns the aggregate statistics of the working set.
// GET /api/analytics/performance?owner=...&since=...&until=...
func (h *AnalyticsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	trades, ok := h.workingSet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.Performance(trades))
}

// strategiesResponse wraps the per-strategy response.
type strategiesResponse struct {
	Strategies []domain.StrategySummary `json:"strategies"`
}

// Strategies returns one summary per distinct strategy label.
// GET /api/analytics/strategies?owner=...
func (h *AnalyticsHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	trades, ok := h.workingSet(w, r)
	if !ok {
		return
	}

	summaries := analytics.StrategySummaries(trades)
	if summaries == nil {
		summaries = []domain.StrategySummary{}
	}
	writeJSON(w, http.StatusOK, strategiesResponse{Strategies: summaries})
}

// Strategy returns the summary for one strategy label. A label with no
// trades yields a zero-valued summary, not a 404.
// GET /api/analytics/strategies/{name}?owner=...
func (h *AnalyticsHandler) Strategy(w http.ResponseWriter, r *http.Request) {
	trades, ok := h.workingSet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.StrategySummary(trades, pathParam(r, "name")))
}

// runningPnlResponse wraps the cumulative series response.
type runningPnlResponse struct {
	Points []domain.PnlPoint `json:"points"`
}

// RunningPnl returns the cumulative profit-and-loss series.
// GET /api/analytics/pnl?owner=...
func (h *AnalyticsHandler) RunningPnl(w http.ResponseWriter, r *http.Request) {
	trades, ok := h.workingSet(w, r)
	if !ok {
		return
	}

	points := analytics.RunningPnl(trades)
	if points == nil {
		points = []domain.PnlPoint{}
	}
	writeJSON(w, http.StatusOK, runningPnlResponse{Points: points})
}

// dailyPnlResponse wraps the daily calendar response.
type dailyPnlResponse struct {
	Days []domain.DayPnl `json:"days"`
}

// DailyPnl returns per-day buckets over an explicit inclusive range.
// GET /api/analytics/daily?owner=...&from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *AnalyticsHandler) DailyPnl(w http.ResponseWriter, r *http.Request) {
	from, to, ok := calendarRange(w, r)
	if !ok {
		return
	}

	trades, ok := h.workingSet(w, r)
	if !ok {
		return
	}

	days := analytics.DailyPnl(trades, from, to)
	if days == nil {
		days = []domain.DayPnl{}
	}
	writeJSON(w, http.StatusOK, dailyPnlResponse{Days: days})
}

// weeklyPnlResponse wraps the weekly calendar response.
type weeklyPnlResponse struct {
	Weeks []domain.WeekPnl `json:"weeks"`
}

// WeeklyPnl returns per-week buckets over an explicit inclusive range. The
// optional week_start parameter names the weekday weeks begin on and
// defaults to Monday.
// GET /api/analytics/weekly?owner=...&from=...&to=...&week_start=sunday
func (h *AnalyticsHandler) WeeklyPnl(w http.ResponseWriter, r *http.Request) {
	from, to, ok := calendarRange(w, r)
	if !ok {
		return
	}

	weekStart, err := parseWeekday(r.URL.Query().Get("week_start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid week_start")
		return
	}

	trades, ok := h.workingSet(w, r)
	if !ok {
		return
	}

	weeks := analytics.WeeklyPnl(trades, from, to, weekStart)
	if weeks == nil {
		weeks = []domain.WeekPnl{}
	}
	writeJSON(w, http.StatusOK, weeklyPnlResponse{Weeks: weeks})
}

// calendarRange reads the required from/to parameters for calendar buckets.
func calendarRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, okFrom := parseTimeParam(r, "from")
	to, okTo := parseTimeParam(r, "to")
	if !okFrom || !okTo {
		writeError(w, http.StatusBadRequest, "from and to query parameters required")
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not precede from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// parseWeekday maps a lowercase weekday name to time.Weekday. Empty input
// defaults to Monday.
func parseWeekday(s string) (time.Weekday, error) {
	if s == "" {
		return time.Monday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("unknown weekday %q", s)
}
