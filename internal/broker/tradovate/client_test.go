package tradovate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcwinn/traderhub/internal/broker"
	"github.com/marcwinn/traderhub/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testPositions(ts time.Time) []apiPosition {
	return []apiPosition{
		{
			ID:          101,
			Symbol:      "esu5",
			Action:      "Buy",
			Size:        2,
			Price:       5450.25,
			RealizedPnl: 312.50,
			Commission:  4.20,
			Timestamp:   ts,
			Venue:       "CME",
			OrderID:     "ord-101",
		},
		{
			ID:          102,
			Symbol:      "NQU5",
			Action:      "Sell",
			Size:        1,
			Price:       19820.75,
			RealizedPnl: -120.00,
			Commission:  2.10,
			Timestamp:   ts.AddDate(0, 0, -30),
			Venue:       "CME",
			OrderID:     "ord-102",
		},
	}
}

func newTestServer(t *testing.T, authCalls *atomic.Int64, expireFirst bool) *httptest.Server {
	t.Helper()

	var dataCalls atomic.Int64

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/accesstokenrequest":
			var req accessTokenRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Password != "good" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"errorText": "invalid credentials"})
				return
			}
			authCalls.Add(1)
			json.NewEncoder(w).Encode(accessTokenResponse{
				AccessToken: "token-v" + time.Now().Format("150405.000000000"),
				ExpiresIn:   3600,
			})
		case "/position/list":
			if expireFirst && dataCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			require.NotEmpty(t, r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(testPositions(time.Date(2025, 8, 15, 14, 30, 0, 0, time.UTC)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestConnect(t *testing.T) {
	var authCalls atomic.Int64
	srv := newTestServer(t, &authCalls, false)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Username: "u", Password: "good", AppID: "traderhub"}, testLogger())

	session, err := client.Connect(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.False(t, session.ExpiresWithin(30*time.Minute))
	require.True(t, session.ExpiresWithin(2*time.Hour))
}

func TestConnect_BadCredentials(t *testing.T) {
	var authCalls atomic.Int64
	srv := newTestServer(t, &authCalls, false)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Username: "u", Password: "bad", AppID: "traderhub"}, testLogger())

	_, err := client.Connect(context.Background())
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, Name, authErr.Broker)
}

func TestConnect_Unreachable(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1", Username: "u", Password: "good"}, testLogger())

	_, err := client.Connect(context.Background())
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestFetchTrades_RangeFilter(t *testing.T) {
	var authCalls atomic.Int64
	srv := newTestServer(t, &authCalls, false)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Username: "u", Password: "good"}, testLogger())
	session, err := client.Connect(context.Background())
	require.NoError(t, err)

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 31, 23, 59, 59, 0, time.UTC)

	trades, err := client.FetchTrades(context.Background(), session, start, end)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	trade := trades[0]
	require.Equal(t, "tradovate-101", trade.ID)
	require.Equal(t, "ESU5", trade.Symbol)
	require.Equal(t, domain.SideLong, trade.Side)
	require.Equal(t, 2.0, trade.Quantity)
	require.Equal(t, 5450.25, trade.EntryPrice)
	require.NotNil(t, trade.ExitPrice)
	require.Equal(t, 5450.25, *trade.ExitPrice)
	require.Equal(t, 312.50, trade.Pnl)
	require.Equal(t, 4.20, trade.Commission)
	require.Equal(t, Name, trade.Broker)
	require.Equal(t, "CME", trade.Execution.Venue)
	require.Equal(t, "ord-101", trade.Execution.OrderID)
}

func TestFetchTrades_InclusiveBounds(t *testing.T) {
	var authCalls atomic.Int64
	srv := newTestServer(t, &authCalls, false)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Username: "u", Password: "good"}, testLogger())
	session, err := client.Connect(context.Background())
	require.NoError(t, err)

	// Range collapsed to the exact trade timestamp still includes it.
	exact := time.Date(2025, 8, 15, 14, 30, 0, 0, time.UTC)
	trades, err := client.FetchTrades(context.Background(), session, exact, exact)
	require.NoError(t, err)
	require.Len(t, trades, 1)
}

func TestFetchTrades_ExpiredSessionRecoversOnce(t *testing.T) {
	var authCalls atomic.Int64
	srv := newTestServer(t, &authCalls, true)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Username: "u", Password: "good"}, testLogger())
	session, err := client.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), authCalls.Load())

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	trades, err := client.FetchTrades(context.Background(), session, start, end)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	// Exactly one silent re-auth, and the session was refreshed in place.
	require.Equal(t, int64(2), authCalls.Load())
	require.NotEmpty(t, session.Token)
}

func TestFetchTrades_NearExpiryReauthsUpFront(t *testing.T) {
	var authCalls atomic.Int64
	srv := newTestServer(t, &authCalls, false)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Username: "u", Password: "good"}, testLogger())

	session := &broker.Session{Token: "stale", ExpiresAt: time.Now().Add(10 * time.Second)}

	_, err := client.FetchTrades(context.Background(), session,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, int64(1), authCalls.Load())
	require.NotEqual(t, "stale", session.Token)
}

func TestFetchTrades_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Username: "u", Password: "good"}, testLogger())
	session := &broker.Session{Token: "t", ExpiresAt: time.Now().Add(time.Hour)}

	_, err := client.FetchTrades(context.Background(), session, time.Time{}, time.Now())
	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, Name, netErr.Broker)
	require.False(t, errors.Is(err, domain.ErrSessionExpired))
}
