package saver

import (
	"strings"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

// SeriesSaver persists one exchange's candle series to a file. The caller
// picks the path; the implementation owns the format.
type SeriesSaver interface {
	Save(candles []model.Candle, path string) error
	Extension() string
}

// NewSeriesSaver creates an implementation by format (csv, parquet, json).
// Returns nil if format not supported.
func NewSeriesSaver(format string) SeriesSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// row is the flat serialization shape shared by the csv and parquet savers.
// Decimal prices flatten to float64 on disk; the canonical decimal values
// stay in model.Candle for in-process consumers.
type row struct {
	OpenTime int64   `parquet:"t"`
	Open     float64 `parquet:"o"`
	High     float64 `parquet:"h"`
	Low      float64 `parquet:"l"`
	Close    float64 `parquet:"c"`
	Volume   float64 `parquet:"v"`
}

func toRows(candles []model.Candle) []row {
	rows := make([]row, len(candles))
	for i, c := range candles {
		rows[i] = row{
			OpenTime: c.OpenTime,
			Open:     c.Open.InexactFloat64(),
			High:     c.High.InexactFloat64(),
			Low:      c.Low.InexactFloat64(),
			Close:    c.Close.InexactFloat64(),
			Volume:   c.Volume.InexactFloat64(),
		}
	}
	return rows
}
