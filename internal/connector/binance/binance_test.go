package binance

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

func newTestConnector(t *testing.T, srv *httptest.Server) *Connector {
	t.Helper()
	return New(connector.Credentials{Timeout: time.Second}, srv.URL)
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestLoadMarkets(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v3/exchangeInfo", serveJSON(`{
		"symbols": [
			{"symbol": "BTCUSDT", "status": "TRADING", "baseAsset": "BTC", "quoteAsset": "USDT"},
			{"symbol": "ETHUSDT", "status": "TRADING", "baseAsset": "ETH", "quoteAsset": "USDT"},
			{"symbol": "OLDUSDT", "status": "BREAK", "baseAsset": "OLD", "quoteAsset": "USDT"}
		]
	}`))

	c := newTestConnector(t, srv)
	require.NoError(t, c.LoadMarkets(context.Background()))

	assert.True(t, c.HasMarket("BTC/USDT"))
	assert.True(t, c.HasMarket("ETH/USDT"))
	assert.False(t, c.HasMarket("OLD/USDT"))

	info := c.Info()
	assert.Equal(t, 2, info.Markets)
	assert.Contains(t, info.Currencies, "BTC")
	assert.Contains(t, info.Currencies, "USDT")
	assert.Contains(t, info.Timeframes, "1h")
}

func TestFetchTicker(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v3/ticker/24hr", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		serveJSON(`{"bidPrice": "45000.01", "askPrice": "45000.02", "lastPrice": "45000.015", "closeTime": 1700000000000}`)(w, r)
	})

	c := newTestConnector(t, srv)
	ticker, err := c.FetchTicker(context.Background(), "BTC/USDT")
	require.NoError(t, err)

	assert.Equal(t, "BTC/USDT", ticker.Symbol)
	assert.Equal(t, "45000.01", ticker.Bid.String())
	assert.Equal(t, "45000.02", ticker.Ask.String())
	assert.Equal(t, "45000.015", ticker.Last.String())
	assert.Equal(t, int64(1700000000000), ticker.Timestamp)
}

func TestFetchOHLCVSinceInMilliseconds(t *testing.T) {
	srv, mux := newTestServer(t)
	since := time.UnixMilli(1700000000000)
	mux.HandleFunc("/api/v3/klines", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.Equal(t, "1700000000000", r.URL.Query().Get("startTime"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		serveJSON(`[
			[1700000000000, "45000", "45100", "44900", "45050", "12.5", 1700003599999],
			[1700003600000, "45050", "45200", "45000", "45150", "9.75", 1700007199999]
		]`)(w, r)
	})

	c := newTestConnector(t, srv)
	candles, err := c.FetchOHLCV(context.Background(), "BTC/USDT", "1h", since, 2)
	require.NoError(t, err)

	require.Len(t, candles, 2)
	assert.Equal(t, int64(1700000000000), candles[0].OpenTime)
	assert.Equal(t, "45000", candles[0].Open.String())
	assert.Equal(t, "45100", candles[0].High.String())
	assert.Equal(t, "44900", candles[0].Low.String())
	assert.Equal(t, "45050", candles[0].Close.String())
	assert.Equal(t, "12.5", candles[0].Volume.String())
	assert.Greater(t, candles[1].OpenTime, candles[0].OpenTime)
}

func TestFetchOrderBook(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v3/depth", serveJSON(`{
		"lastUpdateId": 1,
		"bids": [["45000.00", "1.5"], ["44999.00", "2.0"]],
		"asks": [["45001.00", "0.5"], ["45002.00", "3.0"]]
	}`))

	c := newTestConnector(t, srv)
	book, err := c.FetchOrderBook(context.Background(), "BTC/USDT", 20)
	require.NoError(t, err)

	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, "45000", book.Bids[0].Price.String())
	assert.Equal(t, "1.5", book.Bids[0].Quantity.String())
	assert.Equal(t, "45001", book.Asks[0].Price.String())
}

func TestFetchTickerServerError(t *testing.T) {
	srv, mux := newTestServer(t)
	mux.HandleFunc("/api/v3/ticker/24hr", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code": -1121, "msg": "Invalid symbol."}`, http.StatusBadRequest)
	})

	c := newTestConnector(t, srv)
	_, err := c.FetchTicker(context.Background(), "BTC/USDT")
	var perr *connector.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Name, perr.Exchange)
}
