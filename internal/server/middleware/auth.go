package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// healthPath is reachable without credentials so uptime monitors can poll it
// even when the API requires a token.
const healthPath = "/api/health"

// Auth returns middleware that gates journal endpoints behind a shared API
// token, presented either as "Authorization: Bearer <token>" or in the
// X-API-Key header. The comparison is constant time. An empty token disables
// the gate entirely; the health endpoint is always exempt.
func Auth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.URL.Path == healthPath {
				next.ServeHTTP(w, r)
				return
			}

			presented := bearerOrAPIKey(r)
			if presented == "" {
				writeUnauthorized(w, "missing authentication token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				writeUnauthorized(w, "invalid authentication token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerOrAPIKey pulls the client's token from the Authorization header
// (Bearer scheme) or, failing that, from X-API-Key.
func bearerOrAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, rest, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// writeUnauthorized sends a 401 with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
