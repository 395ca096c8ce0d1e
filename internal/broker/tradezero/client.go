// Package tradezero implements the TradeZero brokerage adapter. TradeZero
// uses long-lived API keys; every request is HMAC-signed, so sessions carry
// the key instead of an expiring token.
package tradezero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/marcwinn/traderhub/internal/broker"
	"github.com/marcwinn/traderhub/internal/crypto"
	"github.com/marcwinn/traderhub/internal/domain"
)

// Name is the registry identifier for this adapter.
const Name = "tradezero"

// Config holds the TradeZero API endpoint and key pair.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Client is the TradeZero REST adapter.
type Client struct {
	cfg        Config
	auth       *crypto.HMACAuth
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new TradeZero adapter.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		auth: &crypto.HMACAuth{Key: cfg.APIKey, Secret: cfg.APISecret},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "broker.tradezero")),
	}
}

// Name returns the registry identifier of the brokerage.
func (c *Client) Name() string { return Name }

// Connect validates the configured key pair against the account endpoint.
// API-key sessions do not expire; the returned session carries the key and a
// zero expiry.
func (c *Client) Connect(ctx context.Context) (*broker.Session, error) {
	body, status, err := c.signedGet(ctx, "/api/v1/account")
	if err != nil {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("endpoint unreachable: %w", err)}
	}
	if status != http.StatusOK {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("HTTP %d: %s", status, string(body))}
	}

	var acct apiAccount
	if err := json.Unmarshal(body, &acct); err != nil {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("decode account response: %w", err)}
	}

	c.logger.Debug("key validated", slog.String("account", acct.AccountID))

	return &broker.Session{APIKey: c.cfg.APIKey}, nil
}

// FetchTrades returns the canonical trades whose exit date falls inside the
// inclusive [start, end] range. The range is pushed down to the server as
// query parameters; the local filter stays as a guard against servers that
// ignore them.
func (c *Client) FetchTrades(ctx context.Context, session *broker.Session, start, end time.Time) ([]domain.Trade, error) {
	if session == nil || session.APIKey == "" {
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("no API key in session")}
	}

	path := "/api/v1/fills?" + url.Values{
		"from": {start.UTC().Format(time.RFC3339)},
		"to":   {end.UTC().Format(time.RFC3339)},
	}.Encode()

	body, status, err := c.signedGet(ctx, path)
	if err != nil {
		return nil, &domain.NetworkError{Broker: Name, Op: "list fills", Err: err}
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, &domain.AuthError{Broker: Name, Err: fmt.Errorf("API key rejected: HTTP %d", status)}
	case status != http.StatusOK:
		return nil, &domain.NetworkError{Broker: Name, Op: "list fills",
			Err: fmt.Errorf("HTTP %d: %s", status, string(body))}
	}

	var fills []apiFill
	if err := json.Unmarshal(body, &fills); err != nil {
		return nil, fmt.Errorf("tradezero: decode fills: %w", err)
	}

	var trades []domain.Trade
	for _, fill := range fills {
		trade, err := fill.toDomainTrade()
		if err != nil {
			return nil, fmt.Errorf("tradezero: fill %s: %w", fill.FillID, err)
		}
		if trade.ExitDate.Before(start) || trade.ExitDate.After(end) {
			continue
		}
		trades = append(trades, trade)
	}

	c.logger.Debug("fetched trades",
		slog.Int("fills", len(fills)),
		slog.Int("in_range", len(trades)),
	)

	return trades, nil
}

// signedGet performs an HMAC-signed GET and returns the body and status.
// The signature covers the method, the path including the query string, and
// the (empty) body.
func (c *Client) signedGet(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.auth.Headers(http.MethodGet, path, "") {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// Compile-time interface check.
var _ broker.Broker = (*Client)(nil)
