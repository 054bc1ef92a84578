package model

import "github.com/shopspring/decimal"

// Ticker is the current best bid/ask/last for one symbol on one exchange.
// Timestamp is Unix milliseconds as reported by the exchange.
type Ticker struct {
	Symbol    string          `json:"symbol"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Last      decimal.Decimal `json:"last"`
	Timestamp int64           `json:"timestamp"`
}

// Candle is one OHLCV bar. OpenTime is Unix milliseconds; within one series
// for one exchange/timeframe open times are strictly increasing.
type Candle struct {
	OpenTime int64           `json:"open_time"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
}

// VolumePoint is the volume-only reduction of a candle.
type VolumePoint struct {
	OpenTime int64           `json:"open_time"`
	Volume   decimal.Decimal `json:"volume"`
}

// OrderBookLevel holds one price level. Quantity is the total outstanding
// size at that price.
type OrderBookLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderBook is a depth snapshot. Bids are sorted descending by price, asks
// ascending, per standard exchange convention.
type OrderBook struct {
	Symbol    string           `json:"symbol"`
	Bids      []OrderBookLevel `json:"bids"`
	Asks      []OrderBookLevel `json:"asks"`
	Timestamp int64            `json:"timestamp"`
}

// ExchangeInfo describes one exchange's capabilities as loaded at startup.
type ExchangeInfo struct {
	Currencies []string `json:"currencies"`
	Timeframes []string `json:"timeframes"`
	Markets    int      `json:"markets"`
}
