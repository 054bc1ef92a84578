package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/aggregate"
)

const (
	defaultTimeframe = "1h"
	defaultLookback  = 24
)

// GetTicker handles GET /api/ticker?symbol=BTC/USDT
func (s *Server) GetTicker(c *gin.Context) {
	snap, err := s.market.FetchTicker(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetCandles handles GET /api/candles?symbol=&timeframe=&lookback=
func (s *Server) GetCandles(c *gin.Context) {
	timeframe := c.DefaultQuery("timeframe", defaultTimeframe)
	lookback := defaultLookback
	if raw := c.Query("lookback"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lookback must be an integer"})
			return
		}
		lookback = v
	}
	snap, err := s.market.FetchOHLCV(c.Request.Context(), c.Query("symbol"), timeframe, lookback)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetOrderBook handles GET /api/orderbook?symbol=&depth=
func (s *Server) GetOrderBook(c *gin.Context) {
	depth := 0
	if raw := c.Query("depth"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be an integer"})
			return
		}
		depth = v
	}
	snap, err := s.market.FetchOrderBook(c.Request.Context(), c.Query("symbol"), depth)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetVolume handles GET /api/volume?symbol=
func (s *Server) GetVolume(c *gin.Context) {
	snap, err := s.market.FetchVolume(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetInfo handles GET /api/info
func (s *Server) GetInfo(c *gin.Context) {
	snap, err := s.market.ExchangeInfo(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Healthz handles GET /healthz
func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleError maps aggregator errors to HTTP statuses: invalid request to
// 400, empty registry to 503, the rest to 500.
func (s *Server) handleError(c *gin.Context, err error) {
	var invalid *aggregate.InvalidRequestError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, aggregate.ErrNoExchanges):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.log.Error("request failed",
			"request_id", c.GetString(requestIDContextKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
