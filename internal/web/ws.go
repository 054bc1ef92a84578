package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/model"
)

// tickerMessage is one broadcast frame.
type tickerMessage struct {
	Type     string                       `json:"type"`
	Symbol   string                       `json:"symbol"`
	Snapshot model.Snapshot[model.Ticker] `json:"snapshot"`
}

// Hub polls ticker snapshots for the watch symbols and broadcasts them to
// every connected websocket client.
type Hub struct {
	market  MarketData
	symbols []string
	every   time.Duration
	log     *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

func NewHub(market MarketData, symbols []string, every time.Duration, log *slog.Logger) *Hub {
	if every <= 0 {
		every = 2 * time.Second
	}
	return &Hub{
		market:  market,
		symbols: symbols,
		every:   every,
		log:     log,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades GET /ws and keeps the connection registered until the
// client goes away.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Info("websocket client connected", "clients", total)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		h.log.Info("websocket client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Run polls and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.hasClients() {
				continue
			}
			for _, symbol := range h.symbols {
				snap, err := h.market.FetchTicker(ctx, symbol)
				if err != nil {
					h.log.Warn("ticker poll failed", "symbol", symbol, "error", err)
					continue
				}
				h.broadcast(tickerMessage{Type: "ticker", Symbol: symbol, Snapshot: snap})
			}
		}
	}
}

func (h *Hub) hasClients() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients) > 0
}

func (h *Hub) broadcast(msg tickerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Warn("websocket write failed", "error", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
