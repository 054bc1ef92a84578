// Package web exposes the aggregator over HTTP: a JSON API for one-shot
// snapshot requests and a websocket feed broadcasting ticker snapshots for
// the configured watch symbols.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

const shutdownGrace = 5 * time.Second

// MarketData is the aggregator surface the server depends on.
type MarketData interface {
	FetchTicker(ctx context.Context, symbol string) (model.Snapshot[model.Ticker], error)
	FetchOHLCV(ctx context.Context, symbol, timeframe string, lookback int) (model.Snapshot[[]model.Candle], error)
	FetchOrderBook(ctx context.Context, symbol string, depth int) (model.Snapshot[model.OrderBook], error)
	FetchVolume(ctx context.Context, symbol string) (model.Snapshot[[]model.VolumePoint], error)
	ExchangeInfo(ctx context.Context) (model.Snapshot[model.ExchangeInfo], error)
}

// Server wires the gin router, the snapshot handlers and the ws hub.
type Server struct {
	addr   string
	market MarketData
	hub    *Hub
	log    *slog.Logger
	engine *gin.Engine
}

// NewServer builds the router. symbols and every configure the ws broadcast.
func NewServer(addr string, market MarketData, symbols []string, every time.Duration, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		addr:   addr,
		market: market,
		hub:    NewHub(market, symbols, every, log),
		log:    log,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), AccessLog(log))

	api := engine.Group("/api")
	api.GET("/ticker", s.GetTicker)
	api.GET("/candles", s.GetCandles)
	api.GET("/orderbook", s.GetOrderBook)
	api.GET("/volume", s.GetVolume)
	api.GET("/info", s.GetInfo)

	engine.GET("/healthz", s.Healthz)
	engine.GET("/ws", s.hub.Handle)

	s.engine = engine
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	go s.hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
