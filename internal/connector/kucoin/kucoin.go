package kucoin

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

const (
	Name    = "kucoin"
	baseURL = "https://api.kucoin.com"

	successCode = "200000"
)

// timeframeMap translates canonical timeframes to KuCoin candle types.
var timeframeMap = map[string]string{
	"1m":  "1min",
	"5m":  "5min",
	"15m": "15min",
	"30m": "30min",
	"1h":  "1hour",
	"4h":  "4hour",
	"1d":  "1day",
	"1w":  "1week",
}

// Connector talks to the KuCoin REST API (api/v1). Responses arrive inside a
// {code, msg, data} envelope; candles are returned newest-first with second
// timestamps, both of which are unwound here so callers only ever see
// canonical series.
type Connector struct {
	client *resty.Client
	creds  connector.Credentials

	mu         sync.RWMutex
	markets    map[string]string // canonical "BTC/USDT" -> native "BTC-USDT"
	currencies []string
}

// New creates a KuCoin connector. baseOverride is for tests; pass "" for the
// production endpoint.
func New(creds connector.Credentials, baseOverride string) *Connector {
	base := baseURL
	if baseOverride != "" {
		base = baseOverride
	}
	c := &Connector{
		creds:   creds,
		markets: make(map[string]string),
	}
	c.client = resty.New().
		SetBaseURL(base).
		SetTimeout(creds.Timeout).
		SetHeader("Accept", "application/json")
	if creds.APIKey != "" {
		c.client.OnBeforeRequest(c.signRequest)
	}
	return c
}

// signRequest attaches KC-API auth headers: base64 HMAC-SHA256 over
// timestamp+method+path, plus the signed passphrase (API key v2 scheme).
func (c *Connector) signRequest(_ *resty.Client, req *resty.Request) error {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	path := req.URL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	mac := hmac.New(sha256.New, []byte(c.creds.APISecret))
	mac.Write([]byte(timestamp + req.Method + path))
	req.SetHeaders(map[string]string{
		"KC-API-KEY":         c.creds.APIKey,
		"KC-API-TIMESTAMP":   timestamp,
		"KC-API-SIGN":        base64.StdEncoding.EncodeToString(mac.Sum(nil)),
		"KC-API-KEY-VERSION": "2",
	})
	if c.creds.Passphrase != "" {
		pmac := hmac.New(sha256.New, []byte(c.creds.APISecret))
		pmac.Write([]byte(c.creds.Passphrase))
		req.SetHeader("KC-API-PASSPHRASE", base64.StdEncoding.EncodeToString(pmac.Sum(nil)))
	}
	return nil
}

func (c *Connector) Name() string { return Name }

type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// call performs one GET and unwraps the KuCoin envelope into out.
func (c *Connector) call(ctx context.Context, op, path string, query map[string]string, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return connector.NewProtocolError(Name, op, err)
	}
	if resp.IsError() {
		return connector.NewProtocolError(Name, op, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return connector.NewProtocolError(Name, op, fmt.Errorf("decode envelope: %w", err))
	}
	if env.Code != successCode {
		return connector.NewProtocolError(Name, op, fmt.Errorf("code %s: %s", env.Code, env.Msg))
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return connector.NewProtocolError(Name, op, fmt.Errorf("decode data: %w", err))
		}
	}
	return nil
}

type symbolEntry struct {
	Symbol        string `json:"symbol"`
	BaseCurrency  string `json:"baseCurrency"`
	QuoteCurrency string `json:"quoteCurrency"`
	EnableTrading bool   `json:"enableTrading"`
}

// LoadMarkets fetches the symbol list and caches tradable markets.
func (c *Connector) LoadMarkets(ctx context.Context) error {
	var symbols []symbolEntry
	if err := c.call(ctx, "symbols", "/api/v1/symbols", nil, &symbols); err != nil {
		return err
	}
	markets := make(map[string]string, len(symbols))
	seen := make(map[string]bool)
	var currencies []string
	for _, s := range symbols {
		if !s.EnableTrading {
			continue
		}
		markets[s.BaseCurrency+"/"+s.QuoteCurrency] = s.Symbol
		for _, cur := range []string{s.BaseCurrency, s.QuoteCurrency} {
			if !seen[cur] {
				seen[cur] = true
				currencies = append(currencies, cur)
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
	timeframes := make([]string, 0, len(timeframeMap))
	for tf := range timeframeMap {
		timeframes = append(timeframes, tf)
	}
	sort.Strings(timeframes)
	return model.ExchangeInfo{
		Currencies: currencies,
		Timeframes: timeframes,
		Markets:    len(c.markets),
	}
}

func (c *Connector) nativeSymbol(symbol string) string {
	c.mu.RLock()
	native, ok := c.markets[symbol]
	c.mu.RUnlock()
	if ok {
		return native
	}
	return strings.ReplaceAll(symbol, "/", "-")
}

type level1Data struct {
	Price   string `json:"price"`
	BestBid string `json:"bestBid"`
	BestAsk string `json:"bestAsk"`
	Time    int64  `json:"time"`
}

func (c *Connector) FetchTicker(ctx context.Context, symbol string) (model.Ticker, error) {
	var raw level1Data
	err := c.call(ctx, "ticker", "/api/v1/market/orderbook/level1",
		map[string]string{"symbol": c.nativeSymbol(symbol)}, &raw)
	if err != nil {
		return model.Ticker{}, err
	}
	bid, err := decimal.NewFromString(raw.BestBid)
	if err != nil {
		return model.Ticker{}, connector.NewProtocolError(Name, "ticker", fmt.Errorf("bad bid %q: %w", raw.BestBid, err))
	}
	ask, err := decimal.NewFromString(raw.BestAsk)
	if err != nil {
		return model.Ticker{}, connector.NewProtocolError(Name, "ticker", fmt.Errorf("bad ask %q: %w", raw.BestAsk, err))
	}
	last, err := decimal.NewFromString(raw.Price)
	if err != nil {
		return model.Ticker{}, connector.NewProtocolError(Name, "ticker", fmt.Errorf("bad last %q: %w", raw.Price, err))
	}
	return model.Ticker{
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		Last:      last,
		Timestamp: raw.Time,
	}, nil
}

// FetchOHLCV fetches candles. KuCoin takes startAt in SECONDS and returns
// rows newest-first as string arrays [time, open, close, high, low, volume,
// turnover]; both quirks are normalized here.
func (c *Connector) FetchOHLCV(ctx context.Context, symbol, timeframe string, since time.Time, limit int) ([]model.Candle, error) {
	candleType, ok := timeframeMap[timeframe]
	if !ok {
		return nil, connector.NewProtocolError(Name, "candles", fmt.Errorf("unsupported timeframe %q", timeframe))
	}
	query := map[string]string{
		"symbol": c.nativeSymbol(symbol),
		"type":   candleType,
	}
	if !since.IsZero() {
		query["startAt"] = strconv.FormatInt(since.Unix(), 10)
	}
	var rows [][]string
	if err := c.call(ctx, "candles", "/api/v1/market/candles", query, &rows); err != nil {
		return nil, err
	}

	candles := make([]model.Candle, 0, len(rows))
	// Reverse to oldest-first while parsing.
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			return nil, connector.NewProtocolError(Name, "candles", fmt.Errorf("short row: %d fields", len(row)))
		}
		sec, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, connector.NewProtocolError(Name, "candles", fmt.Errorf("open time %q: %w", row[0], err))
		}
		fields := make([]decimal.Decimal, 5)
		for j := 1; j <= 5; j++ {
			d, err := decimal.NewFromString(row[j])
			if err != nil {
				return nil, connector.NewProtocolError(Name, "candles", fmt.Errorf("field %d %q: %w", j, row[j], err))
			}
			fields[j-1] = d
		}
		candles = append(candles, model.Candle{
			OpenTime: sec * 1000,
			Open:     fields[0],
			Close:    fields[1],
			High:     fields[2],
			Low:      fields[3],
			Volume:   fields[4],
		})
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

type level2Data struct {
	Time int64       `json:"time"`
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

func (c *Connector) FetchOrderBook(ctx context.Context, symbol string, depth int) (model.OrderBook, error) {
	path := "/api/v1/market/orderbook/level2_100"
	if depth > 0 && depth <= 20 {
		path = "/api/v1/market/orderbook/level2_20"
	}
	var raw level2Data
	err := c.call(ctx, "orderbook", path,
		map[string]string{"symbol": c.nativeSymbol(symbol)}, &raw)
	if err != nil {
		return model.OrderBook{}, err
	}
	book := model.OrderBook{
		Symbol:    symbol,
		Timestamp: raw.Time,
	}
	book.Bids, err = parseLevels(raw.Bids)
	if err != nil {
		return model.OrderBook{}, connector.NewProtocolError(Name, "orderbook", fmt.Errorf("bids: %w", err))
	}
	book.Asks, err = parseLevels(raw.Asks)
	if err != nil {
		return model.OrderBook{}, connector.NewProtocolError(Name, "orderbook", fmt.Errorf("asks: %w", err))
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
