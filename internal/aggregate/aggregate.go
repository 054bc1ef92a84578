// Package aggregate fans one market-data request out across every registered
// exchange concurrently and fans the per-exchange outcomes back in as a
// snapshot. A failing or slow exchange costs its own snapshot slot, never
// the request.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/assemble"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/registry"
)

// DefaultTimeout bounds each per-exchange call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// volumeTimeframe is the bar size backing FetchVolume, matching the hourly
// volume series the rest of the engine expects.
const volumeTimeframe = "1h"

// Aggregator is the market-data fan-out entry point. It is immutable after
// construction and safe for concurrent use.
type Aggregator struct {
	reg      *registry.Registry
	timeout  time.Duration
	log      *slog.Logger
	validate *validator.Validate
}

// New creates an Aggregator over reg. timeout bounds each per-exchange call;
// zero means DefaultTimeout.
func New(reg *registry.Registry, timeout time.Duration, log *slog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{
		reg:      reg,
		timeout:  timeout,
		log:      log,
		validate: newValidator(),
	}
}

// FetchTicker returns the current bid/ask/last for symbol on every exchange.
func (a *Aggregator) FetchTicker(ctx context.Context, symbol string) (model.Snapshot[model.Ticker], error) {
	listed, skipped, err := a.dispatchable(tickerRequest{Symbol: symbol}, symbol)
	if err != nil {
		return nil, err
	}
	done := a.trace(ctx, "ticker", symbol)
	results := fanOut(ctx, a.timeout, listed, func(ctx context.Context, c connector.Connector) (model.Ticker, error) {
		return c.FetchTicker(ctx, symbol)
	})
	snap := assemble.Build(results)
	addSkipped(snap, skipped, symbol)
	done(countOutcomes(snap))
	return snap, nil
}

// FetchOHLCV returns lookback bars of the given timeframe per exchange. The
// since bound is computed once here as a time.Time; each adapter converts it
// to its own wire unit.
func (a *Aggregator) FetchOHLCV(ctx context.Context, symbol, timeframe string, lookback int) (model.Snapshot[[]model.Candle], error) {
	listed, skipped, err := a.dispatchable(ohlcvRequest{Symbol: symbol, Timeframe: timeframe, Lookback: lookback}, symbol)
	if err != nil {
		return nil, err
	}
	since := time.Now().Add(-time.Duration(lookback) * timeframePeriod[timeframe])
	done := a.trace(ctx, "ohlcv", symbol)
	results := fanOut(ctx, a.timeout, listed, func(ctx context.Context, c connector.Connector) ([]model.Candle, error) {
		return c.FetchOHLCV(ctx, symbol, timeframe, since, lookback)
	})
	snap := assemble.CandleSnapshot(results)
	addSkipped(snap, skipped, symbol)
	done(countOutcomes(snap))
	return snap, nil
}

// FetchOrderBook returns a depth snapshot per exchange, bids descending and
// asks ascending. depth 0 uses each exchange's default depth.
func (a *Aggregator) FetchOrderBook(ctx context.Context, symbol string, depth int) (model.Snapshot[model.OrderBook], error) {
	listed, skipped, err := a.dispatchable(orderBookRequest{Symbol: symbol, Depth: depth}, symbol)
	if err != nil {
		return nil, err
	}
	done := a.trace(ctx, "orderbook", symbol)
	results := fanOut(ctx, a.timeout, listed, func(ctx context.Context, c connector.Connector) (model.OrderBook, error) {
		return c.FetchOrderBook(ctx, symbol, depth)
	})
	snap := assemble.OrderBookSnapshot(results)
	addSkipped(snap, skipped, symbol)
	done(countOutcomes(snap))
	return snap, nil
}

// FetchVolume returns hourly volume points per exchange.
func (a *Aggregator) FetchVolume(ctx context.Context, symbol string) (model.Snapshot[[]model.VolumePoint], error) {
	candles, err := a.FetchOHLCV(ctx, symbol, volumeTimeframe, 24)
	if err != nil {
		return nil, err
	}
	return assemble.VolumeSnapshot(candles), nil
}

// ExchangeInfo reports every registered exchange's capabilities as loaded at
// startup. No network calls are made.
func (a *Aggregator) ExchangeInfo(ctx context.Context) (model.Snapshot[model.ExchangeInfo], error) {
	conns := a.reg.List()
	if len(conns) == 0 {
		return nil, ErrNoExchanges
	}
	results := fanOut(ctx, a.timeout, conns, func(_ context.Context, c connector.Connector) (model.ExchangeInfo, error) {
		return c.Info(), nil
	})
	return assemble.Build(results), nil
}

// dispatchable validates req and splits connectors into those listing the
// symbol and those that will get a synthesized not-listed failure. A symbol
// listed nowhere invalidates the whole request.
func (a *Aggregator) dispatchable(req any, symbol string) (listed, skipped []connector.Connector, err error) {
	conns := a.reg.List()
	if len(conns) == 0 {
		return nil, nil, ErrNoExchanges
	}
	if err := a.validate.Struct(req); err != nil {
		return nil, nil, invalidRequest(err)
	}
	for _, c := range conns {
		if c.HasMarket(symbol) {
			listed = append(listed, c)
		} else {
			skipped = append(skipped, c)
		}
	}
	if len(listed) == 0 {
		return nil, nil, &InvalidRequestError{Field: "Symbol", Reason: fmt.Sprintf("%s not listed on any registered exchange", symbol)}
	}
	return listed, skipped, nil
}

// trace logs the fan-out start and returns a closure logging the fan-in
// outcome with the same request id.
func (a *Aggregator) trace(_ context.Context, kind, symbol string) func(success, failed int) {
	requestID := uuid.NewString()
	start := time.Now()
	a.log.Debug("fan-out", "request_id", requestID, "kind", kind, "symbol", symbol, "exchanges", a.reg.Len())
	return func(success, failed int) {
		a.log.Info("fan-in", "request_id", requestID, "kind", kind, "symbol", symbol,
			"success", success, "failed", failed, "elapsed_ms", time.Since(start).Milliseconds())
	}
}

// fanOut runs fn once per connector, each under its own timeout, and blocks
// until every call has completed or timed out. There is no partial early
// return; cancellation of ctx cancels all in-flight calls.
func fanOut[T any](ctx context.Context, timeout time.Duration, conns []connector.Connector, fn func(context.Context, connector.Connector) (T, error)) []assemble.RawResult[T] {
	results := make(chan assemble.RawResult[T], len(conns))
	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c connector.Connector) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			payload, err := safeCall(callCtx, c, fn)
			results <- assemble.RawResult[T]{Exchange: c.Name(), Payload: payload, Err: err, At: time.Now()}
		}(c)
	}
	wg.Wait()
	close(results)

	out := make([]assemble.RawResult[T], 0, len(conns))
	for r := range results {
		out = append(out, r)
	}
	return out
}

// safeCall shields the fan-out from a panicking adapter; the panic becomes
// that exchange's failure record.
func safeCall[T any](ctx context.Context, c connector.Connector, fn func(context.Context, connector.Connector) (T, error)) (payload T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connector panic: %v", r)
		}
	}()
	return fn(ctx, c)
}

// addSkipped fills snapshot slots for exchanges that do not list the symbol,
// preserving the one-entry-per-exchange invariant.
func addSkipped[T any](snap model.Snapshot[T], skipped []connector.Connector, symbol string) {
	for _, c := range skipped {
		snap[c.Name()] = assemble.NotListed[T](c.Name(), symbol)
	}
}

func countOutcomes[T any](snap model.Snapshot[T]) (success, failed int) {
	for _, e := range snap {
		if e.OK {
			success++
		} else {
			failed++
		}
	}
	return success, failed
}
