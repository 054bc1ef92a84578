package saver

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

// CSVSaver writes one series as CSV (header: t,o,h,l,c,v).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(candles []model.Candle, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"t", "o", "h", "l", "c", "v"}); err != nil {
		return err
	}
	for _, r := range toRows(candles) {
		if err := w.Write([]string{
			strconv.FormatInt(r.OpenTime, 10),
			floatStr(r.Open),
			floatStr(r.High),
			floatStr(r.Low),
			floatStr(r.Close),
			floatStr(r.Volume),
		}); err != nil {
			return err
		}
	}
	return nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
