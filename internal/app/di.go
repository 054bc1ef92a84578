package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/aggregate"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/registry"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/saver"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/slogx"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/web"
)

// ProvideConfig loads config from environment (for Wire).
func ProvideConfig() *Config {
	return LoadConfig()
}

// ProvideLogger creates the application logger from config (for Wire).
func ProvideLogger(cfg *Config) *slog.Logger {
	return slogx.NewDefault(cfg.LogLevel)
}

// ProvideRegistry brings up configured exchanges and returns the registry of
// the ones that survived startup (for Wire).
func ProvideRegistry(cfg *Config, log *slog.Logger) *registry.Registry {
	return BuildRegistry(context.Background(), cfg, log)
}

// ProvideAggregator creates the market-data aggregator (for Wire).
func ProvideAggregator(cfg *Config, reg *registry.Registry, log *slog.Logger) *aggregate.Aggregator {
	return aggregate.New(reg, cfg.FetchTimeout, log)
}

// ProvideSeriesSaver creates SeriesSaver from config (for Wire).
// Returns error if SaveFormat is not supported.
func ProvideSeriesSaver(cfg *Config) (saver.SeriesSaver, error) {
	s := saver.NewSeriesSaver(cfg.SaveFormat)
	if s == nil {
		return nil, fmt.Errorf("unsupported SAVE_FORMAT %q (use: csv, parquet, json)", cfg.SaveFormat)
	}
	return s, nil
}

// ProvideServer creates the HTTP/websocket server (for Wire).
func ProvideServer(cfg *Config, agg *aggregate.Aggregator, log *slog.Logger) *web.Server {
	return web.NewServer(cfg.HTTPAddr, agg, cfg.WatchSymbols, cfg.StreamEvery, log)
}
