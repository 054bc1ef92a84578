package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/aggregate"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/app"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/registry"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/saver"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/slogx"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/web"
)

// App holds application dependencies built by Wire.
type App struct {
	Config     *app.Config
	Log        *slog.Logger
	Registry   *registry.Registry
	Aggregator *aggregate.Aggregator
	Saver      saver.SeriesSaver
	Server     *web.Server
}

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&tickerCmd{}, "market data")
	subcommands.Register(&candlesCmd{}, "market data")
	subcommands.Register(&depthCmd{}, "market data")
	subcommands.Register(&volumeCmd{}, "market data")
	subcommands.Register(&infoCmd{}, "market data")
	subcommands.Register(&serveCmd{}, "server")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(int(subcommands.Execute(ctx)))
}
