package tradezero

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcwinn/traderhub/internal/broker"
	"github.com/marcwinn/traderhub/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("TZ-API-KEY") != "key-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NotEmpty(t, r.Header.Get("TZ-TIMESTAMP"))
		require.NotEmpty(t, r.Header.Get("TZ-SIGNATURE"))

		switch r.URL.Path {
		case "/api/v1/account":
			json.NewEncoder(w).Encode(apiAccount{AccountID: "TZ12345", Status: "active"})
		case "/api/v1/fills":
			require.NotEmpty(t, r.URL.Query().Get("from"))
			require.NotEmpty(t, r.URL.Query().Get("to"))
			json.NewEncoder(w).Encode([]apiFill{
				{
					FillID:     "f-1",
					Symbol:     "aapl",
					Side:       "Sell Short",
					Quantity:   100,
					EntryPrice: 231.40,
					ExitPrice:  229.10,
					EntryTime:  "2025-08-20T14:00:00Z",
					ExitTime:   "2025-08-20T15:45:00Z",
					Pnl:        230.00,
					Fees:       1.25,
					Commission: 0.99,
					Route:      "ARCA",
					OrderID:    "o-9",
				},
				{
					FillID:    "f-2",
					Symbol:    "TSLA",
					Side:      "Buy",
					Quantity:  10,
					ExitPrice: 410,
					ExitTime:  "2025-06-01T10:00:00Z",
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestConnect(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "key-1", APISecret: "secret"}, testLogger())

	session, err := client.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, "key-1", session.APIKey)
	// API-key sessions never expire.
	require.False(t, session.ExpiresWithin(24*time.Hour))
}

func TestConnect_RejectedKey(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "wrong", APISecret: "secret"}, testLogger())

	_, err := client.Connect(context.Background())
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, Name, authErr.Broker)
}

func TestFetchTrades(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "key-1", APISecret: "secret"}, testLogger())
	session, err := client.Connect(context.Background())
	require.NoError(t, err)

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

	trades, err := client.FetchTrades(context.Background(), session, start, end)
	require.NoError(t, err)
	// The June fill falls outside the requested range.
	require.Len(t, trades, 1)

	trade := trades[0]
	require.Equal(t, "tradezero-f-1", trade.ID)
	require.Equal(t, "AAPL", trade.Symbol)
	require.Equal(t, domain.SideShort, trade.Side)
	require.Equal(t, 231.40, trade.EntryPrice)
	require.NotNil(t, trade.ExitPrice)
	require.Equal(t, 229.10, *trade.ExitPrice)
	require.Equal(t, time.Date(2025, 8, 20, 14, 0, 0, 0, time.UTC), trade.EntryDate)
	require.Equal(t, time.Date(2025, 8, 20, 15, 45, 0, 0, time.UTC), trade.ExitDate)
	require.Equal(t, 230.00, trade.Pnl)
	require.Equal(t, Name, trade.Broker)
	require.Equal(t, "ARCA", trade.Execution.Venue)
}

func TestFetchTrades_MissingKey(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "key-1", APISecret: "secret"}, testLogger())

	_, err := client.FetchTrades(context.Background(), &broker.Session{}, time.Time{}, time.Now())
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestFetchTrades_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "key-1", APISecret: "secret"}, testLogger())
	session := &broker.Session{APIKey: "key-1"}

	_, err := client.FetchTrades(context.Background(), session, time.Time{}, time.Now())
	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, Name, netErr.Broker)
}
