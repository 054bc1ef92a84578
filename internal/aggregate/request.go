package aggregate

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// timeframePeriod maps each accepted timeframe to its bar duration, used to
// turn a lookback count into a since timestamp. The set is the lowest common
// denominator across the supported exchanges and mirrors the oneof tag below.
var timeframePeriod = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}/[A-Z0-9]{2,10}$`)

type tickerRequest struct {
	Symbol string `validate:"required,market_symbol"`
}

type ohlcvRequest struct {
	Symbol    string `validate:"required,market_symbol"`
	Timeframe string `validate:"required,oneof=1m 5m 15m 30m 1h 4h 1d 1w"`
	Lookback  int    `validate:"required,min=1,max=1000"`
}

type orderBookRequest struct {
	Symbol string `validate:"required,market_symbol"`
	Depth  int    `validate:"omitempty,min=1,max=100"`
}

// newValidator builds the request validator with the market_symbol rule
// (canonical BASE/QUOTE notation, e.g. BTC/USDT).
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("market_symbol", func(fl validator.FieldLevel) bool {
		return symbolPattern.MatchString(fl.Field().String())
	})
	return v
}
