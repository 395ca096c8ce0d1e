package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
)

// Stub brokerage identifiers: declared in the registry so callers can
// enumerate them, but not wired to a live endpoint.
const (
	NameInteractiveBrokers = "interactive_brokers"
	NameTDAmeritrade       = "td_ameritrade"
	NameRobinhood          = "robinhood"
)

// Stub is a declared-but-unwired brokerage. Every call fails with
// ErrAdapterNotImplemented so a missing integration is reported explicitly
// instead of masquerading as a verified zero-trade response.
type Stub struct {
	name string
}

// NewStub creates a stub adapter for the given brokerage identifier.
func NewStub(name string) *Stub {
	return &Stub{name: name}
}

// Name returns the registry identifier of the brokerage.
func (s *Stub) Name() string { return s.name }

// Connect always fails with ErrAdapterNotImplemented.
func (s *Stub) Connect(ctx context.Context) (*Session, error) {
	return nil, fmt.Errorf("%s: connect: %w", s.name, domain.ErrAdapterNotImplemented)
}

// FetchTrades always fails with ErrAdapterNotImplemented.
func (s *Stub) FetchTrades(ctx context.Context, session *Session, start, end time.Time) ([]domain.Trade, error) {
	return nil, fmt.Errorf("%s: fetch trades: %w", s.name, domain.ErrAdapterNotImplemented)
}

// Compile-time interface check.
var _ Broker = (*Stub)(nil)
