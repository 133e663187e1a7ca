package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/hypiq/internal/cache"
	"github.com/betbot/hypiq/internal/pricestream"
	"github.com/betbot/hypiq/internal/waitlist"
	"github.com/betbot/hypiq/internal/wallet"
	"github.com/betbot/hypiq/pkg/sdk/hyperliquid"
)

type fakePrices map[string]pricestream.Snapshot

func (f fakePrices) Coins() []string {
	out := make([]string, 0, len(f))
	for c := range f {
		out = append(out, c)
	}
	return out
}

func (f fakePrices) Snapshot(coin string) (pricestream.Snapshot, bool) {
	s, ok := f[coin]
	return s, ok
}

type brokenStore struct{}

func (brokenStore) Insert(context.Context, string) (waitlist.Entry, error) {
	return waitlist.Entry{}, errors.New("connection refused")
}
func (brokenStore) Count(context.Context) (int64, error) { return 0, errors.New("connection refused") }
func (brokenStore) Close() error                         { return nil }

func newTestServer(t *testing.T, store waitlist.Store) http.Handler {
	t.Helper()
	if store == nil {
		s, err := waitlist.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "waitlist.db"), "waitlist")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		store = s
	}
	srv := New(Options{
		Waitlist: waitlist.NewService(store, nil),
		Prices: fakePrices{"BTC": {
			Coin: "BTC", Ready: true, Price: 97000.5, Target: 97001,
			Connection: hyperliquid.StateConnected,
		}},
		Wallet: wallet.New(nil, wallet.DefaultStartingBalance),
	})
	srv.now = func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }
	return srv.Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(bytes.TrimSpace(rec.Body.Bytes()), &out)
	}
	return rec, out
}

func TestHealthz(t *testing.T) {
	rec, _ := do(t, newTestServer(t, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWaitlist_JoinAndDuplicate(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodPost, "/api/waitlist", `{"email":"Whale@Example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, waitlistSuccessMessage, body["message"])
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, "whale@example.com", data[0].(map[string]interface{})["email"])
	assert.Nil(t, body["duplicate"])

	rec, body = do(t, h, http.MethodPost, "/api/waitlist", `{"email":"whale@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, waitlistSuccessMessage, body["message"])
	assert.Equal(t, true, body["duplicate"])
	assert.Nil(t, body["data"])

	rec, body = do(t, h, http.MethodGet, "/api/waitlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestWaitlist_Validation(t *testing.T) {
	h := newTestServer(t, nil)

	cases := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"missing", `{}`, http.StatusBadRequest, "Email is required"},
		{"empty", `{"email":""}`, http.StatusBadRequest, "Email is required"},
		{"null", `{"email":null}`, http.StatusBadRequest, "Email is required"},
		{"invalid", `{"email":"not-an-email"}`, http.StatusBadRequest, "Invalid email format"},
		{"number", `{"email":42}`, http.StatusBadRequest, "Invalid email format"},
		{"bad json", `{"email":`, http.StatusInternalServerError, "Internal server error"},
		{"empty body", ``, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPost, "/api/waitlist", tc.body)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestWaitlist_StoreErrors(t *testing.T) {
	h := newTestServer(t, brokenStore{})

	rec, body := do(t, h, http.MethodPost, "/api/waitlist", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to register email", body["error"])

	rec, body = do(t, h, http.MethodGet, "/api/waitlist", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to get waitlist count", body["error"])
}

func TestWaitlist_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil)
	for _, m := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec, _ := do(t, h, m, "/api/waitlist", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, m)
	}
}

func TestMarkets(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodGet, "/api/markets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["markets"], 9)

	rec, body = do(t, h, http.MethodGet, "/api/markets/whale-bitcoin-long-10m-will-profit-or-will-lose", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BTC", body["coin"])
	assert.NotEmpty(t, body["rules"])
	price, ok := body["price"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 97000.5, price["price"])
	assert.Equal(t, "connected", price["connection"])

	outcomes, ok := body["outcomes"].([]interface{})
	require.True(t, ok)
	assert.Len(t, outcomes, 7)

	rec, body = do(t, h, http.MethodGet, "/api/markets/heatmap", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cells, ok := body["cells"].([]interface{})
	require.True(t, ok)
	require.Len(t, cells, 7)
	assert.Equal(t, "bitcoin", cells[0].(map[string]interface{})["key"])

	rec, _ = do(t, h, http.MethodGet, "/api/markets/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrices(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodGet, "/api/prices/bitcoin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BTC", body["coin"])

	rec, body = do(t, h, http.MethodGet, "/api/prices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["prices"], 1)

	rec, _ = do(t, h, http.MethodGet, "/api/prices/doge", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPriceGet_FallsBackToCachedQuote(t *testing.T) {
	quotes := cache.NewMemory(0)
	require.NoError(t, quotes.SetQuote(context.Background(), cache.Quote{
		Coin: "ETH", Price: 3500.25, Target: 3501, UpdatedAt: 1700000000000,
	}))
	srv := New(Options{
		Prices: fakePrices{
			"ETH":  {Coin: "ETH", Connection: hyperliquid.StateConnecting},
			"HYPE": {Coin: "HYPE", Connection: hyperliquid.StateConnecting},
			"BTC":  {Coin: "BTC", Ready: true, Price: 97000.5, Connection: hyperliquid.StateConnected},
		},
		Quotes: quotes,
	})
	h := srv.Router()

	rec, body := do(t, h, http.MethodGet, "/api/prices/ETH", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3500.25, body["price"])
	assert.Equal(t, float64(3501), body["target"])
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, false, body["ready"])

	// 缓存里没有
	rec, body = do(t, h, http.MethodGet, "/api/prices/HYPE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["price"])
	assert.Nil(t, body["cached"])

	// 就绪的价格流不读缓存
	rec, body = do(t, h, http.MethodGet, "/api/prices/BTC", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 97000.5, body["price"])
	assert.Nil(t, body["cached"])
}

func TestWalletFlow(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodGet, "/api/wallet", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["isConnected"])
	assert.Equal(t, "382.35", body["balance"])

	rec, body = do(t, h, http.MethodPost, "/api/wallet/connect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wallet.MockAddress, body["address"])

	rec, body = do(t, h, http.MethodPost, "/api/wallet/connect", `{"address":"0xnope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid wallet address", body["error"])

	rec, body = do(t, h, http.MethodPost, "/api/wallet/bets", `{"marketId":"w1","side":"profit","amount":100,"odds":"1.85"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	pos := body["position"].(map[string]interface{})
	assert.Equal(t, "Whale BITCOIN LONG 10M$ will profit or will lose?", pos["marketTitle"])
	assert.Equal(t, "185", pos["potentialPayout"])
	assert.Equal(t, "active", pos["status"])
	assert.True(t, strings.HasPrefix(pos["id"].(string), "pos_"))
	assert.Equal(t, "282.35", body["balance"])

	rec, body = do(t, h, http.MethodPost, "/api/wallet/bets", `{"marketId":"w2","side":"loss","amount":1000,"odds":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Insufficient balance", body["error"])

	rec, _ = do(t, h, http.MethodPost, "/api/wallet/bets", `{"marketId":"zz","side":"loss","amount":1,"odds":2}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, h, http.MethodPost, "/api/wallet/disconnect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["isConnected"])
	assert.Len(t, body["positions"], 1)
}

func TestWalletQuote(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodGet, "/api/wallet/quote?amount=100&odds=2&winProbability=0.6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "200", body["payout"])
	assert.Equal(t, "100", body["profit"])
	assert.Equal(t, 50.0, body["impliedProbability"])
	want := decimal.RequireFromString("19.12")
	got, err := decimal.NewFromString(body["optimalBet"].(string))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	rec, _ = do(t, h, http.MethodGet, "/api/wallet/quote?amount=x&odds=2", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWaitlist_RateLimited(t *testing.T) {
	store, err := waitlist.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "waitlist.db"), "waitlist")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	h := New(Options{Waitlist: waitlist.NewService(store, nil), RateLimitPerMinute: 1}).Router()

	rec, _ := do(t, h, http.MethodPost, "/api/waitlist", `{"email":"one@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, h, http.MethodPost, "/api/waitlist", `{"email":"two@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", body["error"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// 读请求不受限
	rec, _ = do(t, h, http.MethodGet, "/api/waitlist", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
