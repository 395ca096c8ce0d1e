package domain

import (
	"sort"
	"strings"
	"time"
)

// Side is the direction of a trade.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ParseSide normalizes free-text buy/sell or long/short vocabulary into a
// Side. Matching is case-insensitive: the words "buy", "long", "sell", and
// "short" match as substrings ("Short position" resolves to short), while the
// single-letter forms "b", "l", and "s" must be the whole value so that a
// stray letter inside an unrelated word ("sideways") is rejected rather than
// guessed.
func ParseSide(s string) (Side, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "buy"), strings.Contains(v, "long"):
		return SideLong, nil
	case strings.Contains(v, "sell"), strings.Contains(v, "short"):
		return SideShort, nil
	case v == "b", v == "l":
		return SideLong, nil
	case v == "s":
		return SideShort, nil
	default:
		return "", &InvariantViolation{Field: "side", Reason: "unrecognized side " + strings.TrimSpace(s)}
	}
}

// Valid reports whether the side is one of the two enum values.
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

const (
	// DefaultStrategy is assigned when a source supplies no strategy label.
	DefaultStrategy = "Unknown"
	// DefaultBroker is assigned when a source supplies no broker identifier.
	DefaultBroker = "Unknown"
)

// Execution carries optional per-fill metadata a brokerage may attach to a
// trade. Zero values mean the source did not provide the field.
type Execution struct {
	Time    time.Time `json:"time,omitzero"`
	Venue   string    `json:"venue,omitempty"`
	OrderID string    `json:"orderId,omitempty"`
}

// Trade is the canonical representation every ingestion source is converted
// into before aggregation. Instances are created by the normalization engine
// and never mutated afterwards; a correction is a replacement record carrying
// the same ID.
type Trade struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entryPrice"`
	// ExitPrice is nil for an open position with no realized exit. Open
	// trades are excluded from aggregation.
	ExitPrice  *float64  `json:"exitPrice,omitempty"`
	EntryDate  time.Time `json:"entryDate"`
	ExitDate   time.Time `json:"exitDate"`
	Pnl        float64   `json:"pnl"`
	Fees       float64   `json:"fees"`
	Commission float64   `json:"commission"`
	Strategy   string    `json:"strategy"`
	Broker     string    `json:"broker"`
	Tags       []string  `json:"tags,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Execution  Execution `json:"execution,omitzero"`
}

// Closed reports whether the trade has a realized exit.
func (t *Trade) Closed() bool {
	return t.ExitPrice != nil
}

// Validate checks every canonical-model invariant and returns an
// InvariantViolation naming the first offending field. A trade missing a
// required field fails here rather than being silently defaulted.
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return &InvariantViolation{Field: "symbol", Reason: "must not be empty"}
	}
	if !t.Side.Valid() {
		return &InvariantViolation{Field: "side", Reason: "must be long or short"}
	}
	if t.Quantity <= 0 {
		return &InvariantViolation{Field: "quantity", Reason: "must be positive"}
	}
	if t.EntryPrice < 0 {
		return &InvariantViolation{Field: "entryPrice", Reason: "must not be negative"}
	}
	if t.ExitPrice != nil && *t.ExitPrice < 0 {
		return &InvariantViolation{Field: "exitPrice", Reason: "must not be negative"}
	}
	if t.EntryDate.IsZero() {
		return &InvariantViolation{Field: "entryDate", Reason: "must be set"}
	}
	if !t.ExitDate.IsZero() && t.ExitDate.Before(t.EntryDate) {
		return &InvariantViolation{Field: "exitDate", Reason: "must not precede entryDate"}
	}
	if t.Closed() && t.ExitDate.IsZero() {
		return &InvariantViolation{Field: "exitDate", Reason: "must be set for a closed trade"}
	}
	if t.Fees < 0 {
		return &InvariantViolation{Field: "fees", Reason: "must not be negative"}
	}
	if t.Commission < 0 {
		return &InvariantViolation{Field: "commission", Reason: "must not be negative"}
	}
	return nil
}

// NormalizeTags trims, deduplicates, and sorts a tag list, dropping empty
// segments. Order of the input is irrelevant; the result is deterministic.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
