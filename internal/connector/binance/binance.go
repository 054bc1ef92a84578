package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

const (
	Name    = "binance"
	baseURL = "https://api.binance.com"
)

// Timeframes supported by the klines endpoint, in canonical notation.
var timeframes = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w"}

// Connector talks to the Binance spot REST API (api/v3). Market data
// endpoints are public; the API key header is attached when configured so
// the same client can be pointed at key-gated deployments.
type Connector struct {
	client *resty.Client

	mu         sync.RWMutex
	markets    map[string]string // canonical "BTC/USDT" -> native "BTCUSDT"
	currencies []string
}

// New creates a Binance connector. baseOverride is for tests; pass "" for
// the production endpoint.
func New(creds connector.Credentials, baseOverride string) *Connector {
	base := baseURL
	if baseOverride != "" {
		base = baseOverride
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(creds.Timeout).
		SetHeader("Accept", "application/json")
	if creds.APIKey != "" {
		client.SetHeader("X-MBX-APIKEY", creds.APIKey)
	}
	return &Connector{
		client:  client,
		markets: make(map[string]string),
	}
}

func (c *Connector) Name() string { return Name }

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// LoadMarkets fetches exchangeInfo and caches the tradable symbol set.
func (c *Connector) LoadMarkets(ctx context.Context) error {
	var info exchangeInfoResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&info).
		Get("/api/v3/exchangeInfo")
	if err != nil {
		return connector.NewProtocolError(Name, "exchangeInfo", err)
	}
	if resp.IsError() {
		return connector.NewProtocolError(Name, "exchangeInfo", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	markets := make(map[string]string, len(info.Symbols))
	seen := make(map[string]bool)
	var currencies []string
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		markets[s.BaseAsset+"/"+s.QuoteAsset] = s.Symbol
		for _, asset := range []string{s.BaseAsset, s.QuoteAsset} {
			if !seen[asset] {
				seen[asset] = true
				currencies = append(currencies, asset)
			}
		}
	}

	c.mu.Lock()
	c.markets = markets
	c.currencies = currencies
	c.mu.Unlock()
	return nil
}

func (c *Connector) HasMarket(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.markets[symbol]
	return ok
}

func (c *Connector) Info() model.ExchangeInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	currencies := make([]string, len(c.currencies))
	copy(currencies, c.currencies)
	return model.ExchangeInfo{
		Currencies: currencies,
		Timeframes: append([]string(nil), timeframes...),
		Markets:    len(c.markets),
	}
}

// nativeSymbol maps canonical "BTC/USDT" to Binance's "BTCUSDT", preferring
// the mapping learned from exchangeInfo.
func (c *Connector) nativeSymbol(symbol string) string {
	c.mu.RLock()
	native, ok := c.markets[symbol]
	c.mu.RUnlock()
	if ok {
		return native
	}
	return strings.ReplaceAll(symbol, "/", "")
}

type ticker24hResponse struct {
	BidPrice  string `json:"bidPrice"`
	AskPrice  string `json:"askPrice"`
	LastPrice string `json:"lastPrice"`
	CloseTime int64  `json:"closeTime"`
}

func (c *Connector) FetchTicker(ctx context.Context, symbol string) (model.Ticker, error) {
	var raw ticker24hResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", c.nativeSymbol(symbol)).
		SetResult(&raw).
		Get("/api/v3/ticker/24hr")
	if err != nil {
		return model.Ticker{}, connector.NewProtocolError(Name, "ticker", err)
	}
	if resp.IsError() {
		return model.Ticker{}, connector.NewProtocolError(Name, "ticker", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	bid, err := decimal.NewFromString(raw.BidPrice)
	if err != nil {
		return model.Ticker{}, connector.NewProtocolError(Name, "ticker", fmt.Errorf("bad bid %q: %w", raw.BidPrice, err))
	}
	ask, err := decimal.NewFromString(raw.AskPrice)
	if err != nil {
		return model.Ticker{}, connector.NewProtocolError(Name, "ticker", fmt.Errorf("bad ask %q: %w", raw.AskPrice, err))
	}
	last, err := decimal.NewFromString(raw.LastPrice)
	if err != nil {
		return model.Ticker{}, connector.NewProtocolError(Name, "ticker", fmt.Errorf("bad last %q: %w", raw.LastPrice, err))
	}
	return model.Ticker{
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		Last:      last,
		Timestamp: raw.CloseTime,
	}, nil
}

// FetchOHLCV fetches klines. Binance takes startTime in milliseconds; the
// conversion from since happens here and nowhere else.
func (c *Connector) FetchOHLCV(ctx context.Context, symbol, timeframe string, since time.Time, limit int) ([]model.Candle, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   c.nativeSymbol(symbol),
			"interval": timeframe,
		})
	if !since.IsZero() {
		req.SetQueryParam("startTime", fmt.Sprintf("%d", since.UnixMilli()))
	}
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}
	resp, err := req.Get("/api/v3/klines")
	if err != nil {
		return nil, connector.NewProtocolError(Name, "klines", err)
	}
	if resp.IsError() {
		return nil, connector.NewProtocolError(Name, "klines", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	// Klines come as heterogeneous arrays:
	// [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
	var rows [][]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, connector.NewProtocolError(Name, "klines", fmt.Errorf("decode: %w", err))
	}
	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, connector.NewProtocolError(Name, "klines", fmt.Errorf("short row: %d fields", len(row)))
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, connector.NewProtocolError(Name, "klines", fmt.Errorf("open time: %w", err))
		}
		fields := make([]decimal.Decimal, 5)
		for i := 1; i <= 5; i++ {
			var s string
			if err := json.Unmarshal(row[i], &s); err != nil {
				return nil, connector.NewProtocolError(Name, "klines", fmt.Errorf("field %d: %w", i, err))
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, connector.NewProtocolError(Name, "klines", fmt.Errorf("field %d %q: %w", i, s, err))
			}
			fields[i-1] = d
		}
		candles = append(candles, model.Candle{
			OpenTime: openTime,
			Open:     fields[0],
			High:     fields[1],
			Low:      fields[2],
			Close:    fields[3],
			Volume:   fields[4],
		})
	}
	return candles, nil
}

type depthResponse struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

func (c *Connector) FetchOrderBook(ctx context.Context, symbol string, depth int) (model.OrderBook, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", c.nativeSymbol(symbol)).
		SetResult(&depthResponse{})
	if depth > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", depth))
	}
	resp, err := req.Get("/api/v3/depth")
	if err != nil {
		return model.OrderBook{}, connector.NewProtocolError(Name, "depth", err)
	}
	if resp.IsError() {
		return model.OrderBook{}, connector.NewProtocolError(Name, "depth", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
	raw := resp.Result().(*depthResponse)

	book := model.OrderBook{
		Symbol:    symbol,
		Timestamp: time.Now().UnixMilli(),
	}
	book.Bids, err = parseLevels(raw.Bids)
	if err != nil {
		return model.OrderBook{}, connector.NewProtocolError(Name, "depth", fmt.Errorf("bids: %w", err))
	}
	book.Asks, err = parseLevels(raw.Asks)
	if err != nil {
		return model.OrderBook{}, connector.NewProtocolError(Name, "depth", fmt.Errorf("asks: %w", err))
	}
	return book, nil
}

func parseLevels(raw [][2]string) ([]model.OrderBookLevel, error) {
	levels := make([]model.OrderBookLevel, 0, len(raw))
	for _, pair := range raw {
		price, err := decimal.NewFromString(pair[0])
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", pair[0], err)
		}
		qty, err := decimal.NewFromString(pair[1])
		if err != nil {
			return nil, fmt.Errorf("quantity %q: %w", pair[1], err)
		}
		levels = append(levels, model.OrderBookLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}
