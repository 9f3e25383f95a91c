package watcher

import (
	"context"
	"time"

	"kraken-orderbook-watcher/internal/domain"

	"go.uber.org/zap"
)

type ViewSource interface {
	Pairs() []string
	View(pair string, depth int) (domain.BookView, bool)
}

type Presenter interface {
	Display(views ...domain.BookView) error
}

// BookWatcher renders books to a Presenter, either on every change (Stream)
// or for every known pair once per Interval (Scheduled).
type BookWatcher struct {
	Interval time.Duration
	Depth    int
	Mode     domain.WatcherModeEnum

	source    ViewSource
	presenter Presenter
	updates   chan string
	ticker    *time.Ticker
	ctx       context.Context
	logger    *zap.Logger
}

func NewBookWatcher(ctx context.Context, source ViewSource, presenter Presenter, interval time.Duration, depth int, mode domain.WatcherModeEnum, logger *zap.Logger) *BookWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &BookWatcher{
		ctx:       ctx,
		source:    source,
		presenter: presenter,
		Interval:  interval,
		Depth:     depth,
		Mode:      mode,
		updates:   make(chan string, 64),
		logger:    logger,
	}
}

// Notify queues pair for rendering in Stream mode. It never blocks; when the
// queue is full the change is skipped and shows up on the next one.
func (watcher *BookWatcher) Notify(pair string) {
	if watcher.Mode != domain.Stream {
		return
	}
	select {
	case watcher.updates <- pair:
	default:
	}
}

func (watcher *BookWatcher) Start() {
	if watcher.Mode == domain.Scheduled {
		watcher.StartScheduled()
	} else if watcher.Mode == domain.Stream {
		watcher.StartStream()
	}
}

func (watcher *BookWatcher) StartScheduled() {
	watcher.ticker = time.NewTicker(watcher.Interval)
	defer watcher.ticker.Stop()

	watcher.logger.Info("Start displaying books every " + watcher.Interval.String())

	for {
		select {
		case <-watcher.ctx.Done():
			watcher.logger.Info("Stop displaying books")
			return
		case <-watcher.ticker.C:
			watcher.Watch()
		}
	}
}

func (watcher *BookWatcher) StartStream() {
	watcher.logger.Info("Start displaying books on every update")

	for {
		select {
		case <-watcher.ctx.Done():
			watcher.logger.Info("Stop displaying books")
			return
		case pair := <-watcher.updates:
			watcher.display(pair)
		}
	}
}

// Watch renders every pair that has a book.
func (watcher *BookWatcher) Watch() {
	for _, pair := range watcher.source.Pairs() {
		watcher.display(pair)
	}
}

func (watcher *BookWatcher) display(pair string) {
	view, ok := watcher.source.View(pair, watcher.Depth)
	if !ok {
		return
	}
	if err := watcher.presenter.Display(view); err != nil {
		watcher.logger.Error("Failed to display book for " + pair + ": " + err.Error())
	}
}
