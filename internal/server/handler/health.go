package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// healthCheckTimeout bounds each dependency ping so a hung backend cannot
// stall the endpoint.
const healthCheckTimeout = 2 * time.Second

// HealthHandler serves the health-check endpoint. Each wired backend
// (postgres, redis, the archive bucket) registers a ping function; the
// endpoint reports per-dependency status and degrades the overall result
// when any ping fails.
type HealthHandler struct {
	logger *slog.Logger
	checks map[string]func(context.Context) error
}

// NewHealthHandler creates a HealthHandler. checks maps a dependency name to
// its ping; a nil or empty map yields a liveness-only endpoint.
func NewHealthHandler(logger *slog.Logger, checks map[string]func(context.Context) error) *HealthHandler {
	return &HealthHandler{logger: logHandler(logger, "health"), checks: checks}
}

// HealthCheck pings every registered dependency and responds with the
// per-dependency results. Returns 503 when any dependency is unreachable.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	overall := "ok"
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("dependency unhealthy", slog.String("dependency", name), slog.String("error", err.Error()))
			deps[name] = "unreachable"
			overall = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	writeJSON(w, status, body)
}
