package alert

import (
	"context"
	"time"

	"kraken-orderbook-watcher/internal/domain"
	"kraken-orderbook-watcher/internal/platform/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Journal interface {
	RecordAnomaly(ctx context.Context, anomaly domain.Anomaly) error
}

type Notifier interface {
	Notify(ctx context.Context, anomaly domain.Anomaly) error
}

// Reporter queues anomalies from the ingest goroutine and hands them to the
// journal and, rate limited, to the notifier on its own goroutine.
type Reporter struct {
	queue    chan domain.Anomaly
	journal  Journal
	notifier Notifier
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewReporter builds a Reporter. notifier may be nil; alertInterval is the
// minimum time between two notifications.
func NewReporter(journal Journal, notifier Notifier, alertInterval time.Duration, logger *zap.Logger) *Reporter {
	if alertInterval <= 0 {
		alertInterval = time.Minute
	}
	return &Reporter{
		queue:    make(chan domain.Anomaly, 256),
		journal:  journal,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Every(alertInterval), 1),
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

// Report never blocks; anomalies are dropped when the queue is full.
func (r *Reporter) Report(anomaly domain.Anomaly) {
	select {
	case r.queue <- anomaly:
	default:
		metrics.AnomaliesDroppedTotal.Inc()
	}
}

func (r *Reporter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case anomaly := <-r.queue:
			r.handle(ctx, anomaly)
		}
	}
}

func (r *Reporter) handle(ctx context.Context, anomaly domain.Anomaly) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.journal != nil {
		if err := r.journal.RecordAnomaly(ctx, anomaly); err != nil {
			r.logger.Error("Failed to journal anomaly", zap.Error(err))
		}
	}

	if r.notifier == nil || !r.limiter.Allow() {
		return
	}
	if err := r.notifier.Notify(ctx, anomaly); err != nil {
		r.logger.Error("Failed to send anomaly alert", zap.Error(err))
	}
}
