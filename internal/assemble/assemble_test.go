package assemble

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func candle(openTime int64, price, volume string) model.Candle {
	return model.Candle{
		OpenTime: openTime,
		Open:     dec(price),
		High:     dec(price),
		Low:      dec(price),
		Close:    dec(price),
		Volume:   dec(volume),
	}
}

func TestBuildSuccessXORFailure(t *testing.T) {
	snap := Build([]RawResult[string]{
		{Exchange: "binance", Payload: "ok"},
		{Exchange: "kucoin", Err: errors.New("boom"), At: time.Now()},
	})

	require.Len(t, snap, 2)
	assert.True(t, snap["binance"].OK)
	assert.Nil(t, snap["binance"].Failure)
	assert.False(t, snap["kucoin"].OK)
	require.NotNil(t, snap["kucoin"].Failure)
	assert.Equal(t, "kucoin", snap["kucoin"].Failure.Exchange)
	assert.NotZero(t, snap["kucoin"].Failure.Timestamp)
}

func TestClassifyErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want model.ErrorKind
	}{
		{"timeout", context.DeadlineExceeded, model.ErrKindTimeout},
		{"wrapped timeout", errors.Join(errors.New("fetch"), context.DeadlineExceeded), model.ErrKindTimeout},
		{"cancelled", context.Canceled, model.ErrKindCancelled},
		{"protocol", connector.NewProtocolError("binance", "ticker", errors.New("status 500")), model.ErrKindProtocol},
		{"other", errors.New("weird"), model.ErrKindProtocol},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := Build([]RawResult[int]{{Exchange: "x", Err: tc.err}})
			require.NotNil(t, snap["x"].Failure)
			assert.Equal(t, tc.want, snap["x"].Failure.Kind)
		})
	}
}

func TestCandleSnapshotSortsOntoTimeAxis(t *testing.T) {
	// Newest-first input with a duplicated live bar, as KuCoin delivers.
	results := []RawResult[[]model.Candle]{{
		Exchange: "kucoin",
		Payload: []model.Candle{
			candle(3000, "103", "3"),
			candle(2000, "102", "2"),
			candle(1000, "101", "1"),
			candle(3000, "103.5", "4"),
		},
	}}

	snap := CandleSnapshot(results)
	series := snap.Successes()["kucoin"]
	require.Len(t, series, 3)
	assert.Equal(t, []int64{1000, 2000, 3000}, []int64{series[0].OpenTime, series[1].OpenTime, series[2].OpenTime})
	// The later duplicate wins.
	assert.True(t, series[2].Close.Equal(dec("103.5")))

	for i := 1; i < len(series); i++ {
		assert.Greater(t, series[i].OpenTime, series[i-1].OpenTime)
	}
}

func TestCandleSnapshotMalformedFailsClosed(t *testing.T) {
	results := []RawResult[[]model.Candle]{{
		Exchange: "binance",
		Payload:  []model.Candle{candle(0, "100", "1")},
	}}

	snap := CandleSnapshot(results)
	require.NotNil(t, snap["binance"].Failure)
	assert.Equal(t, model.ErrKindMalformed, snap["binance"].Failure.Kind)
	assert.Empty(t, snap["binance"].Payload)
}

func TestCandleSnapshotRejectsNonPositivePrice(t *testing.T) {
	bad := candle(1000, "1", "1")
	bad.Low = dec("0")
	snap := CandleSnapshot([]RawResult[[]model.Candle]{{Exchange: "binance", Payload: []model.Candle{bad}}})
	require.NotNil(t, snap["binance"].Failure)
	assert.Equal(t, model.ErrKindMalformed, snap["binance"].Failure.Kind)
}

func TestOrderBookSnapshotSortsSides(t *testing.T) {
	results := []RawResult[model.OrderBook]{{
		Exchange: "binance",
		Payload: model.OrderBook{
			Symbol: "BTC/USDT",
			Bids: []model.OrderBookLevel{
				{Price: dec("44999"), Quantity: dec("1")},
				{Price: dec("45001"), Quantity: dec("2")},
				{Price: dec("45000"), Quantity: dec("3")},
			},
			Asks: []model.OrderBookLevel{
				{Price: dec("45010"), Quantity: dec("1")},
				{Price: dec("45005"), Quantity: dec("2")},
			},
		},
	}}

	snap := OrderBookSnapshot(results)
	book := snap.Successes()["binance"]

	require.Len(t, book.Bids, 3)
	for i := 1; i < len(book.Bids); i++ {
		assert.True(t, book.Bids[i].Price.LessThan(book.Bids[i-1].Price), "bids must descend")
	}
	require.Len(t, book.Asks, 2)
	for i := 1; i < len(book.Asks); i++ {
		assert.True(t, book.Asks[i].Price.GreaterThan(book.Asks[i-1].Price), "asks must ascend")
	}
}

func TestOrderBookSnapshotRejectsBadLevel(t *testing.T) {
	results := []RawResult[model.OrderBook]{{
		Exchange: "kucoin",
		Payload: model.OrderBook{
			Bids: []model.OrderBookLevel{{Price: dec("-1"), Quantity: dec("1")}},
		},
	}}
	snap := OrderBookSnapshot(results)
	require.NotNil(t, snap["kucoin"].Failure)
	assert.Equal(t, model.ErrKindMalformed, snap["kucoin"].Failure.Kind)
}

func TestVolumeSnapshotPreservesFailures(t *testing.T) {
	candles := CandleSnapshot([]RawResult[[]model.Candle]{
		{Exchange: "binance", Payload: []model.Candle{candle(1000, "100", "7")}},
		{Exchange: "kucoin", Err: context.DeadlineExceeded},
	})

	snap := VolumeSnapshot(candles)
	require.Len(t, snap, 2)
	points := snap.Successes()["binance"]
	require.Len(t, points, 1)
	assert.True(t, points[0].Volume.Equal(dec("7")))
	require.NotNil(t, snap["kucoin"].Failure)
	assert.Equal(t, model.ErrKindTimeout, snap["kucoin"].Failure.Kind)
}

func TestNotListedEntry(t *testing.T) {
	entry := NotListed[model.Ticker]("kucoin", "BTC/USDT")
	assert.False(t, entry.OK)
	require.NotNil(t, entry.Failure)
	assert.Equal(t, model.ErrKindNotListed, entry.Failure.Kind)
	assert.Contains(t, entry.Failure.Message, "BTC/USDT")
}
