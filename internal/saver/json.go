package saver

import (
	"encoding/json"
	"os"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

// JSONSaver writes one series as an indented JSON array with the canonical
// decimal prices preserved.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(candles []model.Candle, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(candles)
}
