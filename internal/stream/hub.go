package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"kraken-orderbook-watcher/internal/domain"
	"kraken-orderbook-watcher/internal/platform/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const clientBuffer = 32

type client struct {
	id    string
	pairs map[string]bool
	send  chan []byte
}

func (c *client) wants(pair string) bool {
	return len(c.pairs) == 0 || c.pairs[pair]
}

// Hub pushes book views to websocket clients. A client may restrict itself to
// some pairs with ?pairs=ETH/USD,XBT/USD; slow clients lose messages rather
// than stall the others.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

func (h *Hub) Name() string {
	return "websocket"
}

func (h *Hub) Publish(_ context.Context, view domain.BookView) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal book view: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !c.wants(view.Pair) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			metrics.SinkDroppedTotal.WithLabelValues(h.Name()).Inc()
			h.logger.Debug("Stream client too slow, dropping view", zap.String("client", c.id), zap.String("pair", view.Pair))
		}
	}
	return nil
}

func (h *Hub) register(pairs []string) *client {
	c := &client{
		id:    uuid.NewString(),
		pairs: make(map[string]bool),
		send:  make(chan []byte, clientBuffer),
	}
	for _, pair := range pairs {
		if pair = strings.TrimSpace(pair); pair != "" {
			c.pairs[pair] = true
		}
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	metrics.StreamClients.Inc()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	metrics.StreamClients.Dec()
}

// Upgrade rejects plain HTTP requests on websocket routes.
func (h *Hub) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *Hub) Handler() fiber.Handler {
	return websocket.New(h.serve)
}

func (h *Hub) serve(conn *websocket.Conn) {
	var pairs []string
	if query := conn.Query("pairs"); query != "" {
		pairs = strings.Split(query, ",")
	}
	c := h.register(pairs)
	defer h.unregister(c)

	h.logger.Info("Stream client connected: " + c.id)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			h.logger.Info("Stream client disconnected: " + c.id)
			return
		case payload := <-c.send:
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Warn("Failed to write to stream client", zap.String("client", c.id), zap.Error(err))
				return
			}
		}
	}
}
