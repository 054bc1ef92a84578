package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

// Credentials holds per-exchange authentication and connection parameters.
// Passphrase is only required by exchanges that use it (e.g. KuCoin).
type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
	Timeout    time.Duration
}

// Connector is the per-exchange adapter. Implementations own every
// exchange-specific quirk: symbol notation, response shapes, timestamp and
// since-parameter units. Everything they return is already in canonical form
// (decimal prices, millisecond timestamps).
//
// LoadMarkets is called once at startup; after that the connector is treated
// as immutable and must be safe for concurrent reads. Mutable internals such
// as rate-limit state must be synchronized by the connector itself.
type Connector interface {
	Name() string
	LoadMarkets(ctx context.Context) error
	HasMarket(symbol string) bool
	Info() model.ExchangeInfo

	FetchTicker(ctx context.Context, symbol string) (model.Ticker, error)
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since time.Time, limit int) ([]model.Candle, error)
	FetchOrderBook(ctx context.Context, symbol string, depth int) (model.OrderBook, error)
}

// ProtocolError signals an exchange API failure: unexpected HTTP status,
// exchange-level error code, or an undecodable body.
type ProtocolError struct {
	Exchange string
	Op       string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Exchange, e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NewProtocolError wraps err as a ProtocolError for the given exchange op.
func NewProtocolError(exchange, op string, err error) *ProtocolError {
	return &ProtocolError{Exchange: exchange, Op: op, Err: err}
}
