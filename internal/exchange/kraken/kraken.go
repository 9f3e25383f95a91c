package kraken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kraken-orderbook-watcher/internal/config"
	"kraken-orderbook-watcher/internal/domain"
	"kraken-orderbook-watcher/internal/platform/metrics"

	"github.com/coder/websocket"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

const krakenWebsocketUrl = "wss://ws.kraken.com/"

// MessageHandler receives every text frame read from the feed, in order, on
// the read loop goroutine.
type MessageHandler func(message []byte)

type KrakenExchange struct {
	websocketUrl string
	depth        int
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	backoffMin   time.Duration
	backoffMax   time.Duration

	handler MessageHandler
	logger  *zap.Logger
}

func CreateClient(feed config.FeedConfig, handler MessageHandler, logger *zap.Logger) *KrakenExchange {
	url := feed.Url
	if url == "" {
		url = krakenWebsocketUrl
	}

	logger.Info("Kraken client created for " + url)

	return &KrakenExchange{
		websocketUrl: url,
		depth:        feed.Depth,
		pingInterval: orDefault(feed.PingInterval, 15*time.Second),
		readTimeout:  orDefault(feed.ReadTimeout, 30*time.Second),
		writeTimeout: orDefault(feed.WriteTimeout, 5*time.Second),
		backoffMin:   orDefault(feed.BackoffMin, 250*time.Millisecond),
		backoffMax:   orDefault(feed.BackoffMax, 8*time.Second),
		handler:      handler,
		logger:       logger,
	}
}

func (krakenExchange *KrakenExchange) GetName() string {
	return domain.Kraken.String()
}

// SubscribeSocket streams the book channel for pairs and reconnects with
// backoff until ctx is done. Books go stale while disconnected; the snapshot
// sent after resubscribing replaces them.
func (krakenExchange *KrakenExchange) SubscribeSocket(ctx context.Context, pairs []string) (err error) {
	request, err := NewSubscribeRequest(pairs, krakenExchange.depth)
	if err != nil {
		return err
	}
	subscribeMessage, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal subscribe message: %w", err)
	}

	retry := &backoff.Backoff{
		Min:    krakenExchange.backoffMin,
		Max:    krakenExchange.backoffMax,
		Factor: 2,
		Jitter: true,
	}

	for {
		krakenExchange.logger.Info("Subscribing to Kraken websocket for pairs: " + strings.Join(pairs, ","))
		received, err := krakenExchange.session(ctx, subscribeMessage)
		if ctx.Err() != nil {
			krakenExchange.logger.Info("Kraken websocket stopped")
			return nil
		}
		if received {
			retry.Reset()
		}

		wait := retry.Duration()
		metrics.WSReconnectsTotal.Inc()
		krakenExchange.logger.Warn("Kraken websocket session ended, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", wait),
			zap.Float64("attempt", retry.Attempt()))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// session runs one connection until it fails or ctx is done. received reports
// whether any message arrived, which resets the reconnect backoff.
func (krakenExchange *KrakenExchange) session(ctx context.Context, subscribeMessage []byte) (received bool, err error) {
	c, _, err := websocket.Dial(ctx, krakenExchange.websocketUrl, nil)
	if err != nil {
		return false, fmt.Errorf("failed to dial Kraken websocket: %w", err)
	}
	defer c.CloseNow()
	c.SetReadLimit(-1) //Disable read limit

	writeCtx, cancelWrite := context.WithTimeout(ctx, krakenExchange.writeTimeout)
	err = c.Write(writeCtx, websocket.MessageText, subscribeMessage)
	cancelWrite()
	if err != nil {
		return false, fmt.Errorf("failed to send subscribe message: %w", err)
	}

	sessionCtx, stop := context.WithCancel(ctx)
	defer stop()
	go krakenExchange.pingLoop(sessionCtx, c)

	for {
		readCtx, cancelRead := context.WithTimeout(sessionCtx, krakenExchange.readTimeout)
		messageType, message, err := c.Read(readCtx)
		cancelRead()
		if err != nil {
			if ctx.Err() != nil {
				c.Close(websocket.StatusNormalClosure, "")
				return received, ctx.Err()
			}
			return received, fmt.Errorf("failed to read message from Kraken websocket: %w", err)
		}

		if messageType != websocket.MessageText {
			krakenExchange.logger.Error("Received unknown message type from Kraken websocket: " + strconv.Itoa(int(messageType)))
			continue
		}
		received = true
		krakenExchange.handler(message)
	}
}

func (krakenExchange *KrakenExchange) pingLoop(ctx context.Context, c *websocket.Conn) {
	ticker := time.NewTicker(krakenExchange.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, krakenExchange.writeTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					krakenExchange.logger.Warn("Kraken websocket ping failed", zap.Error(err))
				}
				return
			}
		}
	}
}

func orDefault(value time.Duration, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
