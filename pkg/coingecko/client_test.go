package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithRateLimit(0), WithAPIKey("", "secret"))
}

func TestSimplePrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,solana", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "secret", r.Header.Get(DefaultAPIKeyHeader))
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":42000.5},"solana":{"usd":101.25}}`))
	})

	prices, err := c.SimplePrice(context.Background(), []string{"bitcoin", "solana"}, "usd")
	require.NoError(t, err)
	assert.True(t, prices["bitcoin"]["usd"].Equal(decimal.RequireFromString("42000.5")))
	assert.True(t, prices["solana"]["usd"].Equal(decimal.RequireFromString("101.25")))
}

func TestSimplePriceNoIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	prices, err := c.SimplePrice(context.Background(), nil, "usd")
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestGetCoin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/jupiter-exchange-solana", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("tickers"))
		_, _ = w.Write([]byte(`{"id":"jupiter-exchange-solana","symbol":"jup","name":"Jupiter","image":{"thumb":"t.png","small":"s.png","large":"l.png"}}`))
	})

	coin, err := c.GetCoin(context.Background(), "jupiter-exchange-solana")
	require.NoError(t, err)
	assert.Equal(t, "jup", coin.Symbol)
	assert.Equal(t, "s.png", coin.Image.Small)
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eth", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"coins":[{"id":"ethereum","name":"Ethereum","symbol":"ETH","market_cap_rank":2,"thumb":"t","large":"l"}]}`))
	})

	coins, err := c.Search(context.Background(), "eth")
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, "ethereum", coins[0].ID)
	assert.Equal(t, 2, coins[0].MarketCapRank)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429}}`))
	})

	_, err := c.SimplePrice(context.Background(), []string{"bitcoin"}, "usd")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, apiErr.Retryable())

	notFound := &APIError{StatusCode: http.StatusNotFound}
	assert.False(t, notFound.Retryable())
}
