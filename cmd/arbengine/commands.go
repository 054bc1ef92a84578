package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

// initApp builds the application and swaps the default logger to the
// configured level.
func initApp() (*App, subcommands.ExitStatus) {
	a, err := InitializeApp()
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return nil, subcommands.ExitFailure
	}
	slog.SetDefault(a.Log)
	return a, subcommands.ExitSuccess
}

func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to encode output", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type tickerCmd struct {
	symbol string
}

func (*tickerCmd) Name() string     { return "ticker" }
func (*tickerCmd) Synopsis() string { return "fetch current bid/ask/last across all exchanges" }
func (*tickerCmd) Usage() string {
	return "ticker -symbol BTC/USDT\n"
}

func (c *tickerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "BTC/USDT", "market symbol, BASE/QUOTE")
}

func (c *tickerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := initApp()
	if status != subcommands.ExitSuccess {
		return status
	}
	snap, err := a.Aggregator.FetchTicker(ctx, c.symbol)
	if err != nil {
		slog.Error("ticker request failed", "symbol", c.symbol, "error", err)
		return subcommands.ExitFailure
	}
	return printJSON(snap)
}

type candlesCmd struct {
	symbol    string
	timeframe string
	lookback  int
	save      bool
}

func (*candlesCmd) Name() string     { return "candles" }
func (*candlesCmd) Synopsis() string { return "fetch OHLCV candles across all exchanges" }
func (*candlesCmd) Usage() string {
	return "candles -symbol BTC/USDT -timeframe 1h -lookback 24 [-save]\n"
}

func (c *candlesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "BTC/USDT", "market symbol, BASE/QUOTE")
	f.StringVar(&c.timeframe, "timeframe", "1h", "candle timeframe")
	f.IntVar(&c.lookback, "lookback", 24, "number of periods to look back")
	f.BoolVar(&c.save, "save", false, "persist each exchange's series to DATA_DIR")
}

func (c *candlesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := initApp()
	if status != subcommands.ExitSuccess {
		return status
	}
	snap, err := a.Aggregator.FetchOHLCV(ctx, c.symbol, c.timeframe, c.lookback)
	if err != nil {
		slog.Error("candles request failed", "symbol", c.symbol, "error", err)
		return subcommands.ExitFailure
	}
	if c.save {
		if err := saveSeries(a, c.symbol, c.timeframe, snap); err != nil {
			slog.Error("failed to save series", "error", err)
			return subcommands.ExitFailure
		}
	}
	return printJSON(snap)
}

// saveSeries persists every successful series as
// DATA_DIR/{exchange}_{symbol}_{timeframe}.{ext}.
func saveSeries(a *App, symbol, timeframe string, snap model.Snapshot[[]model.Candle]) error {
	if err := os.MkdirAll(a.Config.DataDir, 0755); err != nil {
		return err
	}
	flat := strings.ReplaceAll(symbol, "/", "-")
	for exchange, series := range snap.Successes() {
		name := fmt.Sprintf("%s_%s_%s.%s", exchange, flat, timeframe, a.Saver.Extension())
		path := filepath.Join(a.Config.DataDir, name)
		if err := a.Saver.Save(series, path); err != nil {
			return err
		}
		slog.Info("series saved", "exchange", exchange, "path", path, "candles", len(series))
	}
	return nil
}

type depthCmd struct {
	symbol string
	depth  int
}

func (*depthCmd) Name() string     { return "depth" }
func (*depthCmd) Synopsis() string { return "fetch order book depth across all exchanges" }
func (*depthCmd) Usage() string {
	return "depth -symbol BTC/USDT [-depth 20]\n"
}

func (c *depthCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "BTC/USDT", "market symbol, BASE/QUOTE")
	f.IntVar(&c.depth, "depth", 0, "levels per side, 0 for exchange default")
}

func (c *depthCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := initApp()
	if status != subcommands.ExitSuccess {
		return status
	}
	snap, err := a.Aggregator.FetchOrderBook(ctx, c.symbol, c.depth)
	if err != nil {
		slog.Error("depth request failed", "symbol", c.symbol, "error", err)
		return subcommands.ExitFailure
	}
	return printJSON(snap)
}

type volumeCmd struct {
	symbol string
}

func (*volumeCmd) Name() string     { return "volume" }
func (*volumeCmd) Synopsis() string { return "fetch hourly volume points across all exchanges" }
func (*volumeCmd) Usage() string {
	return "volume -symbol BTC/USDT\n"
}

func (c *volumeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "BTC/USDT", "market symbol, BASE/QUOTE")
}

func (c *volumeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := initApp()
	if status != subcommands.ExitSuccess {
		return status
	}
	snap, err := a.Aggregator.FetchVolume(ctx, c.symbol)
	if err != nil {
		slog.Error("volume request failed", "symbol", c.symbol, "error", err)
		return subcommands.ExitFailure
	}
	return printJSON(snap)
}

type infoCmd struct{}

func (*infoCmd) Name() string     { return "info" }
func (*infoCmd) Synopsis() string { return "show registered exchanges and capabilities" }
func (*infoCmd) Usage() string {
	return "info\n"
}

func (*infoCmd) SetFlags(*flag.FlagSet) {}

func (*infoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := initApp()
	if status != subcommands.ExitSuccess {
		return status
	}
	snap, err := a.Aggregator.ExchangeInfo(ctx)
	if err != nil {
		slog.Error("info request failed", "error", err)
		return subcommands.ExitFailure
	}
	return printJSON(snap)
}

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the HTTP API and websocket ticker feed" }
func (*serveCmd) Usage() string {
	return "serve\n"
}

func (*serveCmd) SetFlags(*flag.FlagSet) {}

func (*serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := initApp()
	if status != subcommands.ExitSuccess {
		return status
	}
	slog.Info("registered exchanges", "exchanges", a.Registry.Names())
	if err := a.Server.Run(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
