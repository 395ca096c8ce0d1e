// Package tradovate implements the Tradovate brokerage adapter. Tradovate
// uses username/password/application-id authentication that yields a bearer
// token with an expiry.
package tradovate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcwinn/traderhub/internal/broker"
	"github.com/marcwinn/traderhub/internal/domain"
)

// Name is the registry identifier for this adapter.
const Name = "tradovate"

// expiryMargin is how close to expiry a session may be before FetchTrades
// re-authenticates up front, so callers never observe an avoidable expiry
// failure after a legitimate wait.
const expiryMargin = 2 * time.Minute

// Config holds the Tradovate API endpoint and credential bundle.
type Config struct {
	// BaseURL is the API root, e.g. "https://live.tradovate.com/v1".
	BaseURL  string
	Username string
	Password string
	AppID    string
	CID      string
}

// Client is the Tradovate REST adapter.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new Tradovate adapter.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "broker.tradovate")),
	}
}

// Name returns the registry identifier of the brokerage.
func (c *Client) Name() string { return Name }

// Connect exchanges the configured credentials for a bearer token session.
// Rejected credentials and unreachable endpoints both surface as AuthError
// so the caller knows to re-prompt rather than simply retry.
func (c *Client) Connect(ctx context.Context) (*broker.Session, error) {
	reqBody := accessTokenRequest{
		Name:       c.cfg.Username,
		Password:   c.cfg.Password,
		AppID:      c.cfg.AppID,
		AppVersion: "1.0",
		CID:        c.cfg.CID,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("tradovate: marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/auth/accesstokenrequest", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("tradovate: create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("endpoint unreachable: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("read auth response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErrorText(body))}
	}

	var tok accessTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("decode auth response: %w", err)}
	}
	if tok.ErrorText != "" {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("credentials rejected: %s", tok.ErrorText)}
	}
	if tok.AccessToken == "" {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("no access token in response")}
	}

	c.logger.Debug("session established",
		slog.Time("expires_at", time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second)),
	)

	return &broker.Session{
		Token:     tok.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}, nil
}

// FetchTrades returns the canonical trades whose exit date falls inside the
// inclusive [start, end] range. A session at or near expiry is re-established
// before the data request, and an expiry reported by the server is recovered
// from exactly once before the error surfaces.
func (c *Client) FetchTrades(ctx context.Context, session *broker.Session, start, end time.Time) ([]domain.Trade, error) {
	if session.ExpiresWithin(expiryMargin) {
		fresh, err := c.Connect(ctx)
		if err != nil {
			return nil, err
		}
		*session = *fresh
	}

	positions, err := c.listPositions(ctx, session)
	if errors.Is(err, domain.ErrSessionExpired) {
		// Recover from a server-side expiry once via silent re-auth.
		fresh, connErr := c.Connect(ctx)
		if connErr != nil {
			return nil, connErr
		}
		*session = *fresh
		positions, err = c.listPositions(ctx, session)
	}
	if err != nil {
		return nil, err
	}

	var trades []domain.Trade
	for _, pos := range positions {
		trade := pos.toDomainTrade()
		if trade.ExitDate.Before(start) || trade.ExitDate.After(end) {
			continue
		}
		trades = append(trades, trade)
	}

	c.logger.Debug("fetched trades",
		slog.Int("positions", len(positions)),
		slog.Int("in_range", len(trades)),
	)

	return trades, nil
}

// listPositions calls the position list endpoint with the session's bearer
// token. An HTTP 401 maps to ErrSessionExpired; transport failures map to
// NetworkError and are not retried here.
func (c *Client) listPositions(ctx context.Context, session *broker.Session) ([]apiPosition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/position/list", nil)
	if err != nil {
		return nil, fmt.Errorf("tradovate: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+session.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Broker: Name, Op: "list positions", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Broker: Name, Op: "read positions response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrSessionExpired
	case resp.StatusCode != http.StatusOK:
		return nil, &domain.NetworkError{Broker: Name, Op: "list positions",
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErrorText(body))}
	}

	var positions []apiPosition
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("tradovate: decode positions: %w", err)
	}

	return positions, nil
}

// apiErrorText extracts a human-readable message from an error response
// body, falling back to the raw body.
func apiErrorText(body []byte) string {
	var apiErr struct {
		ErrorText string `json:"errorText"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.ErrorText != "" {
		return apiErr.ErrorText
	}
	return string(body)
}

// Compile-time interface check.
var _ broker.Broker = (*Client)(nil)
