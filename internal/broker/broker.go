// Package broker defines the capability set every brokerage adapter
// implements and a registry for looking adapters up by identifier.
package broker

import (
	"context"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
)

// Broker is the capability set of one brokerage integration: establish a
// session, then retrieve executed trades for a date range. One concrete
// implementation exists per supported brokerage.
type Broker interface {
	// Name returns the registry identifier of the brokerage.
	Name() string

	// Connect establishes a session from the adapter's configured
	// credentials. Invalid credentials or an unreachable endpoint surface as
	// an AuthError.
	Connect(ctx context.Context) (*Session, error)

	// FetchTrades returns canonical trades whose exit date falls within the
	// inclusive [start, end] range. An expired session is re-established
	// once, transparently, before the error is surfaced. Transport failures
	// surface as NetworkError without internal retry.
	FetchTrades(ctx context.Context, session *Session, start, end time.Time) ([]domain.Trade, error)
}

// Session is the live credential state for one brokerage connection. A
// bearer token with expiry and a static API key are two states of the same
// abstraction, not separate types. A Session is exclusively owned by the
// adapter instance that created it and is never shared.
type Session struct {
	// Token is the bearer token for token-auth brokerages; empty for static
	// API-key brokerages.
	Token string

	// ExpiresAt is the token expiry. The zero value means the session does
	// not expire (static API key).
	ExpiresAt time.Time

	// APIKey is set for static-key brokerages.
	APIKey string
}

// ExpiresWithin reports whether the session is already expired or will
// expire within the given margin. Non-expiring sessions always return false.
func (s *Session) ExpiresWithin(margin time.Duration) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !time.Now().Add(margin).Before(s.ExpiresAt)
}
