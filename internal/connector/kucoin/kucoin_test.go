package kucoin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, mux
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestLoadMarkets(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v1/symbols", serveJSON(`{
		"code": "200000",
		"data": [
			{"symbol": "BTC-USDT", "baseCurrency": "BTC", "quoteCurrency": "USDT", "enableTrading": true},
			{"symbol": "ETH-USDT", "baseCurrency": "ETH", "quoteCurrency": "USDT", "enableTrading": true},
			{"symbol": "DEAD-USDT", "baseCurrency": "DEAD", "quoteCurrency": "USDT", "enableTrading": false}
		]
	}`))

	c := New(connector.Credentials{Timeout: time.Second}, srv.URL)
	require.NoError(t, c.LoadMarkets(context.Background()))

	assert.True(t, c.HasMarket("BTC/USDT"))
	assert.False(t, c.HasMarket("DEAD/USDT"))
	info := c.Info()
	assert.Equal(t, 2, info.Markets)
	assert.Contains(t, info.Timeframes, "1h")
}

func TestFetchTicker(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v1/market/orderbook/level1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTC-USDT", r.URL.Query().Get("symbol"))
		serveJSON(`{"code": "200000", "data": {"price": "45000.5", "bestBid": "45000.4", "bestAsk": "45000.6", "time": 1700000000000}}`)(w, r)
	})

	c := New(connector.Credentials{Timeout: time.Second}, srv.URL)
	ticker, err := c.FetchTicker(context.Background(), "BTC/USDT")
	require.NoError(t, err)

	assert.Equal(t, "45000.4", ticker.Bid.String())
	assert.Equal(t, "45000.6", ticker.Ask.String())
	assert.Equal(t, "45000.5", ticker.Last.String())
	assert.Equal(t, int64(1700000000000), ticker.Timestamp)
}

func TestFetchOHLCVNormalizesDescendingSecondRows(t *testing.T) {
	srv, mux := newTestServer(t)
	since := time.Unix(1700000000, 0)
	mux.HandleFunc("/api/v1/market/candles", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTC-USDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1hour", r.URL.Query().Get("type"))
		// KuCoin's since unit is seconds.
		assert.Equal(t, "1700000000", r.URL.Query().Get("startAt"))
		// Rows are newest-first: [time, open, close, high, low, volume, turnover].
		serveJSON(`{"code": "200000", "data": [
			["1700007200", "45100", "45150", "45200", "45050", "9.75", "439000"],
			["1700003600", "45000", "45100", "45120", "44980", "12.5", "562000"]
		]}`)(w, r)
	})

	c := New(connector.Credentials{Timeout: time.Second}, srv.URL)
	candles, err := c.FetchOHLCV(context.Background(), "BTC/USDT", "1h", since, 0)
	require.NoError(t, err)

	require.Len(t, candles, 2)
	// Oldest first, millisecond timestamps.
	assert.Equal(t, int64(1700003600000), candles[0].OpenTime)
	assert.Equal(t, int64(1700007200000), candles[1].OpenTime)
	assert.Equal(t, "45000", candles[0].Open.String())
	assert.Equal(t, "45100", candles[0].Close.String())
	assert.Equal(t, "45120", candles[0].High.String())
	assert.Equal(t, "44980", candles[0].Low.String())
	assert.Equal(t, "12.5", candles[0].Volume.String())
}

func TestFetchOHLCVUnsupportedTimeframe(t *testing.T) {
	c := New(connector.Credentials{Timeout: time.Second}, "http://127.0.0.1:0")
	_, err := c.FetchOHLCV(context.Background(), "BTC/USDT", "3m", time.Time{}, 0)
	var perr *connector.ProtocolError
	require.ErrorAs(t, err, &perr)
}

func TestFetchOrderBook(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v1/market/orderbook/level2_20", serveJSON(`{
		"code": "200000",
		"data": {
			"time": 1700000000000,
			"bids": [["45000.4", "1.5"], ["45000.0", "2.0"]],
			"asks": [["45000.6", "0.5"], ["45001.0", "3.0"]]
		}
	}`))

	c := New(connector.Credentials{Timeout: time.Second}, srv.URL)
	book, err := c.FetchOrderBook(context.Background(), "BTC/USDT", 20)
	require.NoError(t, err)

	require.Len(t, book.Bids, 2)
	assert.Equal(t, "45000.4", book.Bids[0].Price.String())
	assert.Equal(t, int64(1700000000000), book.Timestamp)
}

func TestEnvelopeErrorCode(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v1/market/orderbook/level1", serveJSON(`{"code": "400100", "msg": "symbol not exists"}`))

	c := New(connector.Credentials{Timeout: time.Second}, srv.URL)
	_, err := c.FetchTicker(context.Background(), "NOPE/USDT")
	var perr *connector.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "400100")
}

func TestSignedRequestCarriesAuthHeaders(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v1/market/orderbook/level1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("KC-API-KEY"))
		assert.NotEmpty(t, r.Header.Get("KC-API-SIGN"))
		assert.NotEmpty(t, r.Header.Get("KC-API-TIMESTAMP"))
		assert.NotEmpty(t, r.Header.Get("KC-API-PASSPHRASE"))
		assert.Equal(t, "2", r.Header.Get("KC-API-KEY-VERSION"))
		serveJSON(`{"code": "200000", "data": {"price": "1", "bestBid": "1", "bestAsk": "1", "time": 1}}`)(w, r)
	})

	c := New(connector.Credentials{APIKey: "key", APISecret: "secret", Passphrase: "phrase", Timeout: time.Second}, srv.URL)
	_, err := c.FetchTicker(context.Background(), "BTC/USDT")
	require.NoError(t, err)
}
