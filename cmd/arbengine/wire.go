//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/app"
)

// InitializeApp builds App (config, registry, aggregator, saver, server) via
// Wire. Exchanges that fail bring-up are skipped inside ProvideRegistry.
func InitializeApp() (*App, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideRegistry,
		app.ProvideAggregator,
		app.ProvideSeriesSaver,
		app.ProvideServer,
		wire.Struct(new(App), "*"),
	)
	return nil, nil
}
