package saver

import (
	"github.com/parquet-go/parquet-go"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

// ParquetSaver writes one series as Parquet using the flat float row shape.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(candles []model.Candle, path string) error {
	return parquet.WriteFile(path, toRows(candles))
}
