package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector/binance"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector/kucoin"
	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/registry"
)

// connectorFactory is swapped in tests.
var connectorFactory = newConnector

// newConnector constructs the adapter for one configured exchange name.
// Missing credentials or an unsupported name is a configuration error.
func newConnector(name string, creds connector.Credentials) (connector.Connector, error) {
	switch name {
	case binance.Name:
		if creds.APIKey == "" || creds.APISecret == "" {
			return nil, fmt.Errorf("binance: missing API key or secret")
		}
		return binance.New(creds, ""), nil
	case kucoin.Name:
		if creds.APIKey == "" || creds.APISecret == "" || creds.Passphrase == "" {
			return nil, fmt.Errorf("kucoin: missing API key, secret or passphrase")
		}
		return kucoin.New(creds, ""), nil
	default:
		return nil, fmt.Errorf("exchange %q not supported", name)
	}
}

// BuildRegistry brings up every configured exchange: construct the adapter,
// load its markets, register it. A failure at any step aborts that exchange
// only; it is logged, skipped and never registered, so the registry holds
// exactly the reachable exchanges.
func BuildRegistry(ctx context.Context, cfg *Config, log *slog.Logger) *registry.Registry {
	reg := registry.New()

	type candidate struct {
		name string
		conn connector.Connector
	}
	var mu sync.Mutex
	var ready []candidate

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range cfg.Exchanges {
		conn, err := connectorFactory(name, cfg.Credentials[name])
		if err != nil {
			log.Error("failed to initialize exchange", "exchange", name, "error", err)
			continue
		}
		g.Go(func() error {
			loadCtx, cancel := context.WithTimeout(gctx, cfg.FetchTimeout)
			defer cancel()
			if err := conn.LoadMarkets(loadCtx); err != nil {
				log.Error("failed to load markets", "exchange", name, "error", err)
				return nil // skip this exchange, never the whole startup
			}
			mu.Lock()
			ready = append(ready, candidate{name: name, conn: conn})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Register in configured order so List() is deterministic.
	for _, name := range cfg.Exchanges {
		for _, c := range ready {
			if c.name != name {
				continue
			}
			if err := reg.Register(c.conn); err != nil {
				log.Error("failed to register exchange", "exchange", name, "error", err)
				continue
			}
			log.Info("exchange ready", "exchange", name, "markets", c.conn.Info().Markets)
		}
	}
	return reg
}
