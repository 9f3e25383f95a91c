package publisher

import (
	"context"
	"sort"
	"sync"
	"time"

	"kraken-orderbook-watcher/internal/domain"
	"kraken-orderbook-watcher/internal/platform/metrics"

	"go.uber.org/zap"
)

// Sink receives book views for one presentation target.
type Sink interface {
	Name() string
	Publish(ctx context.Context, view domain.BookView) error
}

type ViewSource interface {
	View(pair string, depth int) (domain.BookView, bool)
}

// Dispatcher fans book changes out to sinks off the ingest goroutine. Changes
// to the same pair that arrive while a flush is running are coalesced into one
// publication of the latest view.
type Dispatcher struct {
	source  ViewSource
	sinks   []Sink
	depth   int
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	dirty map[string]struct{}
	wake  chan struct{}
}

func NewDispatcher(source ViewSource, depth int, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		source:  source,
		sinks:   sinks,
		depth:   depth,
		timeout: 5 * time.Second,
		logger:  logger,
		dirty:   make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Notify marks pair as changed. It never blocks.
func (d *Dispatcher) Notify(pair string) {
	d.mu.Lock()
	d.dirty[pair] = struct{}{}
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	if len(d.sinks) == 0 {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
			d.flush(ctx)
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context) {
	d.mu.Lock()
	pairs := make([]string, 0, len(d.dirty))
	for pair := range d.dirty {
		pairs = append(pairs, pair)
	}
	d.dirty = make(map[string]struct{})
	d.mu.Unlock()
	sort.Strings(pairs)

	for _, pair := range pairs {
		view, ok := d.source.View(pair, d.depth)
		if !ok {
			continue
		}
		for _, sink := range d.sinks {
			publishCtx, cancel := context.WithTimeout(ctx, d.timeout)
			err := sink.Publish(publishCtx, view)
			cancel()
			if err != nil {
				metrics.SinkPublishErrorsTotal.WithLabelValues(sink.Name()).Inc()
				d.logger.Warn("Failed to publish book view",
					zap.String("sink", sink.Name()),
					zap.String("pair", pair),
					zap.Error(err))
			}
		}
	}
}
