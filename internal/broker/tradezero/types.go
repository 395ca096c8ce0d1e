package tradezero

import (
	"fmt"
	"strings"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
)

// apiAccount is the account endpoint response, used only to validate keys.
type apiAccount struct {
	AccountID string `json:"accountId"`
	Status    string `json:"status"`
}

// apiFill is one round-trip fill from the fills endpoint. Entry and exit are
// reported separately, unlike position-style feeds.
type apiFill struct {
	FillID     string  `json:"fillId"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entryPrice"`
	ExitPrice  float64 `json:"exitPrice"`
	EntryTime  string  `json:"entryTime"`
	ExitTime   string  `json:"exitTime"`
	Pnl        float64 `json:"pnl"`
	Fees       float64 `json:"fees"`
	Commission float64 `json:"commission"`
	Route      string  `json:"route"`
	OrderID    string  `json:"orderId"`
}

// toDomainTrade converts a fill into the canonical trade model.
func (f apiFill) toDomainTrade() (domain.Trade, error) {
	side, err := domain.ParseSide(f.Side)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse side %q: %w", f.Side, err)
	}

	exitDate, err := time.Parse(time.RFC3339, f.ExitTime)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse exit time %q: %w", f.ExitTime, err)
	}

	entryDate := exitDate
	if f.EntryTime != "" {
		entryDate, err = time.Parse(time.RFC3339, f.EntryTime)
		if err != nil {
			return domain.Trade{}, fmt.Errorf("parse entry time %q: %w", f.EntryTime, err)
		}
	}

	exitPrice := f.ExitPrice

	return domain.Trade{
		ID:         "tradezero-" + f.FillID,
		Symbol:     strings.ToUpper(f.Symbol),
		Side:       side,
		Quantity:   f.Quantity,
		EntryPrice: f.EntryPrice,
		ExitPrice:  &exitPrice,
		EntryDate:  entryDate,
		ExitDate:   exitDate,
		Pnl:        f.Pnl,
		Fees:       f.Fees,
		Commission: f.Commission,
		Broker:     Name,
		Strategy:   domain.DefaultStrategy,
		Execution: domain.Execution{
			Time:    exitDate,
			Venue:   f.Route,
			OrderID: f.OrderID,
		},
	}, nil
}
