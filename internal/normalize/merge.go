package normalize

import "github.com/marcwinn/traderhub/internal/domain"

// Merge combines an incoming batch into an existing collection keyed by
// trade ID. An incoming trade whose ID already exists replaces the stored
// one in place, so corrections and re-imports update rather than duplicate.
// New trades append in their incoming order. Neither input is mutated.
//
// Merging the same batch twice yields the same result as merging it once.
func Merge(existing, incoming []domain.Trade) []domain.Trade {
	out := make([]domain.Trade, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	index := make(map[string]int, len(out))
	for i, trade := range out {
		index[trade.ID] = i
	}

	for _, trade := range incoming {
		if i, ok := index[trade.ID]; ok {
			out[i] = trade
			continue
		}
		index[trade.ID] = len(out)
		out = append(out, trade)
	}

	return out
}
