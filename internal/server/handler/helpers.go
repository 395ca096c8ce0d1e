package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a domain error to the appropriate HTTP status and
// writes it. Validation failures carry the original message so a client can
// surface the offending row and field.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		valErr  *domain.ValueError
		mapErr  *domain.FieldMappingError
		parErr  *domain.ParseError
		invErr  *domain.InvariantViolation
		authErr *domain.AuthError
		netErr  *domain.NetworkError
	)

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrAdapterNotImplemented):
		writeError(w, http.StatusNotImplemented, "brokerage adapter not implemented")
	case errors.As(err, &valErr), errors.As(err, &mapErr),
		errors.As(err, &parErr), errors.As(err, &invErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &authErr):
		writeError(w, http.StatusBadGateway, "brokerage authentication failed")
	case errors.As(err, &netErr):
		writeError(w, http.StatusBadGateway, "brokerage unreachable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseListOpts extracts standard pagination and time-range parameters from
// the query string. Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	opts := domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
	if t, ok := parseTimeParam(r, "since"); ok {
		opts.Since = &t
	}
	if t, ok := parseTimeParam(r, "until"); ok {
		opts.Until = &t
	}
	return opts
}

// parseTimeParam reads a query parameter as RFC 3339 or a plain date.
func parseTimeParam(r *http.Request, name string) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ownerParam reads the owner identifier from the query string, falling back
// to the configured default journal.
func ownerParam(r *http.Request) string {
	if v := r.URL.Query().Get("owner"); v != "" {
		return v
	}
	return "default"
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
