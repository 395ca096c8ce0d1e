// Package normalize turns trades from any source into canonical form and
// merges incoming batches into existing collections.
package normalize

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/marcwinn/traderhub/internal/domain"
)

// Batch canonicalizes a slice of trades: identifiers are assigned where
// missing, symbols uppercased, tags deduplicated, and empty strategy and
// broker fields filled with their defaults. Every trade is validated; the
// first violation aborts the whole batch so a partially-normalized slice is
// never returned. The input is not mutated.
func Batch(trades []domain.Trade) ([]domain.Trade, error) {
	if len(trades) == 0 {
		return nil, nil
	}

	out := make([]domain.Trade, len(trades))
	for i, trade := range trades {
		normalized := canonicalize(trade)
		if err := normalized.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = normalized
	}

	return out, nil
}

// canonicalize returns the trade with canonical field values. Already
// canonical trades come back unchanged, so applying it twice is a no-op.
func canonicalize(trade domain.Trade) domain.Trade {
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	trade.Symbol = strings.ToUpper(strings.TrimSpace(trade.Symbol))
	trade.Strategy = strings.TrimSpace(trade.Strategy)
	if trade.Strategy == "" {
		trade.Strategy = domain.DefaultStrategy
	}
	trade.Broker = strings.TrimSpace(trade.Broker)
	if trade.Broker == "" {
		trade.Broker = domain.DefaultBroker
	}
	trade.Tags = domain.NormalizeTags(trade.Tags)

	// An exit price recorded without an entry price carries over, matching
	// single-price import sources.
	if trade.EntryPrice == 0 && trade.ExitPrice != nil {
		trade.EntryPrice = *trade.ExitPrice
	}
	if trade.EntryDate.IsZero() {
		trade.EntryDate = trade.ExitDate
	}

	return trade
}
