package tradovate

import (
	"strconv"
	"strings"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
)

// accessTokenRequest is the auth request body.
type accessTokenRequest struct {
	Name       string `json:"name"`
	Password   string `json:"password"`
	AppID      string `json:"appId"`
	AppVersion string `json:"appVersion"`
	CID        string `json:"cid,omitempty"`
}

// accessTokenResponse is the auth response. ErrorText is set when the
// credentials are rejected even though the HTTP status is 200.
type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expirationTime"`
	UserID      int64  `json:"userId"`
	ErrorText   string `json:"errorText"`
}

// apiPosition is one closed position from the position list endpoint.
type apiPosition struct {
	ID          int64     `json:"id"`
	Symbol      string    `json:"symbol"`
	Action      string    `json:"action"`
	Size        float64   `json:"size"`
	Price       float64   `json:"price"`
	RealizedPnl float64   `json:"realizedPnl"`
	Commission  float64   `json:"commission"`
	Timestamp   time.Time `json:"timestamp"`
	Venue       string    `json:"venue"`
	OrderID     string    `json:"orderId"`
}

// toDomainTrade converts a position into the canonical trade model. The
// single reported price fills both entry and exit prices; the position
// timestamp is used for both dates.
func (p apiPosition) toDomainTrade() domain.Trade {
	side := domain.SideLong
	if strings.EqualFold(p.Action, "Sell") {
		side = domain.SideShort
	}

	exitPrice := p.Price

	return domain.Trade{
		ID:         "tradovate-" + strconv.FormatInt(p.ID, 10),
		Symbol:     strings.ToUpper(p.Symbol),
		Side:       side,
		Quantity:   p.Size,
		EntryPrice: p.Price,
		ExitPrice:  &exitPrice,
		EntryDate:  p.Timestamp,
		ExitDate:   p.Timestamp,
		Pnl:        p.RealizedPnl,
		Commission: p.Commission,
		Broker:     Name,
		Strategy:   domain.DefaultStrategy,
		Execution: domain.Execution{
			Time:    p.Timestamp,
			Venue:   p.Venue,
			OrderID: p.OrderID,
		},
	}
}
