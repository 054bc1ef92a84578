// Package assemble turns per-exchange raw results into uniform snapshots.
// All shape differences between exchanges stop here: series are re-sorted
// onto the real time axis, books are put into bid-desc/ask-asc order, and a
// malformed response degrades into a failure record instead of escaping to
// the caller.
package assemble

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

// RawResult is one exchange's outcome as captured at the fan-in barrier.
type RawResult[T any] struct {
	Exchange string
	Payload  T
	Err      error
	At       time.Time
}

// Build maps raw results into a snapshot, one entry per exchange.
func Build[T any](results []RawResult[T]) model.Snapshot[T] {
	snap := make(model.Snapshot[T], len(results))
	for _, r := range results {
		if r.Err != nil {
			snap[r.Exchange] = failureEntry[T](r.Exchange, classify(r.Err), r.Err.Error(), r.At)
			continue
		}
		snap[r.Exchange] = model.Entry[T]{Exchange: r.Exchange, OK: true, Payload: r.Payload}
	}
	return snap
}

// classify maps an error to the failure taxonomy. Deadline errors become
// timeouts, caller cancellation stays distinct, everything else from a
// connector is a protocol failure.
func classify(err error) model.ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return model.ErrKindTimeout
	case errors.Is(err, context.Canceled):
		return model.ErrKindCancelled
	}
	var perr *connector.ProtocolError
	if errors.As(err, &perr) {
		return model.ErrKindProtocol
	}
	return model.ErrKindProtocol
}

func failureEntry[T any](exchange string, kind model.ErrorKind, msg string, at time.Time) model.Entry[T] {
	if at.IsZero() {
		at = time.Now()
	}
	return model.Entry[T]{
		Exchange: exchange,
		Failure: &model.Failure{
			Exchange:  exchange,
			Kind:      kind,
			Message:   msg,
			Timestamp: at.UnixMilli(),
		},
	}
}

// NotListed synthesizes the failure entry for an exchange that does not list
// the requested symbol; no network call is made for it.
func NotListed[T any](exchange, symbol string) model.Entry[T] {
	return failureEntry[T](exchange, model.ErrKindNotListed, "symbol "+symbol+" not listed", time.Now())
}

// CandleSnapshot builds a candle snapshot and normalizes every successful
// series: sorted by open time, duplicates dropped, invalid candles rejected.
// A series that cannot be normalized becomes a malformed-response failure.
func CandleSnapshot(results []RawResult[[]model.Candle]) model.Snapshot[[]model.Candle] {
	snap := Build(results)
	for name, entry := range snap {
		if !entry.OK {
			continue
		}
		series, err := normalizeCandles(entry.Payload)
		if err != nil {
			snap[name] = failureEntry[[]model.Candle](name, model.ErrKindMalformed, err.Error(), time.Now())
			continue
		}
		entry.Payload = series
		snap[name] = entry
	}
	return snap
}

func normalizeCandles(candles []model.Candle) ([]model.Candle, error) {
	for _, c := range candles {
		if c.OpenTime <= 0 {
			return nil, errors.New("candle with non-positive open time")
		}
		if c.Open.Sign() <= 0 || c.High.Sign() <= 0 || c.Low.Sign() <= 0 || c.Close.Sign() <= 0 {
			return nil, errors.New("candle with non-positive price")
		}
		if c.Volume.Sign() < 0 {
			return nil, errors.New("candle with negative volume")
		}
	}
	out := append([]model.Candle(nil), candles...)
	sort.Slice(out, func(i, j int) bool { return out[i].OpenTime < out[j].OpenTime })
	// Strictly increasing open times: keep the last candle seen for a
	// duplicated open time (exchanges resend the live bar).
	dedup := out[:0]
	for _, c := range out {
		if n := len(dedup); n > 0 && dedup[n-1].OpenTime == c.OpenTime {
			dedup[n-1] = c
			continue
		}
		dedup = append(dedup, c)
	}
	return dedup, nil
}

// OrderBookSnapshot builds an order book snapshot with every successful book
// sorted bids-descending and asks-ascending. Books with invalid levels
// become malformed-response failures.
func OrderBookSnapshot(results []RawResult[model.OrderBook]) model.Snapshot[model.OrderBook] {
	snap := Build(results)
	for name, entry := range snap {
		if !entry.OK {
			continue
		}
		book, err := normalizeBook(entry.Payload)
		if err != nil {
			snap[name] = failureEntry[model.OrderBook](name, model.ErrKindMalformed, err.Error(), time.Now())
			continue
		}
		entry.Payload = book
		snap[name] = entry
	}
	return snap
}

func normalizeBook(book model.OrderBook) (model.OrderBook, error) {
	for _, side := range [][]model.OrderBookLevel{book.Bids, book.Asks} {
		for _, lvl := range side {
			if lvl.Price.Sign() <= 0 {
				return model.OrderBook{}, errors.New("level with non-positive price")
			}
			if lvl.Quantity.Sign() < 0 {
				return model.OrderBook{}, errors.New("level with negative quantity")
			}
		}
	}
	bids := append([]model.OrderBookLevel(nil), book.Bids...)
	asks := append([]model.OrderBookLevel(nil), book.Asks...)
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })
	book.Bids = bids
	book.Asks = asks
	return book, nil
}

// VolumeSnapshot reduces a candle snapshot to volume points, preserving
// per-exchange failures.
func VolumeSnapshot(candles model.Snapshot[[]model.Candle]) model.Snapshot[[]model.VolumePoint] {
	snap := make(model.Snapshot[[]model.VolumePoint], len(candles))
	for name, entry := range candles {
		if !entry.OK {
			snap[name] = model.Entry[[]model.VolumePoint]{Exchange: name, Failure: entry.Failure}
			continue
		}
		points := make([]model.VolumePoint, len(entry.Payload))
		for i, c := range entry.Payload {
			points[i] = model.VolumePoint{OpenTime: c.OpenTime, Volume: c.Volume}
		}
		snap[name] = model.Entry[[]model.VolumePoint]{Exchange: name, OK: true, Payload: points}
	}
	return snap
}
