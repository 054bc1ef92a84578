package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

type stubConnector struct {
	name string
}

func (s *stubConnector) Name() string                        { return s.name }
func (s *stubConnector) LoadMarkets(context.Context) error   { return nil }
func (s *stubConnector) HasMarket(string) bool               { return true }
func (s *stubConnector) Info() model.ExchangeInfo            { return model.ExchangeInfo{} }
func (s *stubConnector) FetchTicker(context.Context, string) (model.Ticker, error) {
	return model.Ticker{}, nil
}
func (s *stubConnector) FetchOHLCV(context.Context, string, string, time.Time, int) ([]model.Candle, error) {
	return nil, nil
}
func (s *stubConnector) FetchOrderBook(context.Context, string, int) (model.OrderBook, error) {
	return model.OrderBook{}, nil
}

func TestRegisterAndGet(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(&stubConnector{name: "binance"}))
	require.NoError(t, reg.Register(&stubConnector{name: "kucoin"}))

	c, err := reg.Get("binance")
	require.NoError(t, err)
	assert.Equal(t, "binance", c.Name())
	assert.Equal(t, 2, reg.Len())
}

func TestRegisterDuplicate(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(&stubConnector{name: "binance"}))

	err := reg.Register(&stubConnector{name: "binance"})
	require.Error(t, err)
	var dup *ErrDuplicateExchange
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "binance", dup.Exchange)
	assert.Equal(t, 1, reg.Len())
}

func TestGetUnknown(t *testing.T) {
	reg := New()
	_, err := reg.Get("deribit")
	var unknown *ErrUnknownExchange
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "deribit", unknown.Exchange)
}

func TestListPreservesOrderAndIsACopy(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(&stubConnector{name: "binance"}))
	require.NoError(t, reg.Register(&stubConnector{name: "kucoin"}))

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "binance", list[0].Name())
	assert.Equal(t, "kucoin", list[1].Name())

	list[0] = &stubConnector{name: "mutated"}
	fresh := reg.List()
	assert.Equal(t, "binance", fresh[0].Name())

	assert.Equal(t, []string{"binance", "kucoin"}, reg.Names())
}
