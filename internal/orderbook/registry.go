package orderbook

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"kraken-orderbook-watcher/internal/domain"
	"kraken-orderbook-watcher/internal/platform/metrics"

	"go.uber.org/zap"
)

// ErrBookNotFound is returned by Ingest for a diff whose pair has no snapshot yet.
var ErrBookNotFound = errors.New("order book not found")

type Parser interface {
	Parse(raw []byte) (domain.FeedUpdate, error)
}

// AnomalyReporter receives messages that could not be applied. Report must not block.
type AnomalyReporter interface {
	Report(anomaly domain.Anomaly)
}

// Registry owns one OrderBook per pair. Ingest must be called from a single
// goroutine; Snapshot, Book and View may be called from anywhere.
type Registry struct {
	mu        sync.Mutex
	parser    Parser
	books     map[string]*OrderBook
	updatedAt map[string]time.Time
	listeners []func(pair string)

	exchange    string
	reporter    AnomalyReporter
	logger      *zap.Logger
	stateLogger *zap.Logger
	now         func() time.Time
}

type Option func(*Registry)

func WithAnomalyReporter(reporter AnomalyReporter) Option {
	return func(r *Registry) { r.reporter = reporter }
}

func WithStateLogger(stateLogger *zap.Logger) Option {
	return func(r *Registry) { r.stateLogger = stateLogger }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithExchange(exchange domain.ExchangeEnum) Option {
	return func(r *Registry) { r.exchange = exchange.String() }
}

func NewRegistry(parser Parser, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		parser:      parser,
		books:       make(map[string]*OrderBook),
		updatedAt:   make(map[string]time.Time),
		exchange:    domain.Kraken.String(),
		logger:      logger,
		stateLogger: zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnUpdate registers fn to be called with the pair after every snapshot or
// applied diff. fn runs on the ingesting goroutine and must not block.
func (r *Registry) OnUpdate(fn func(pair string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Ingest parses raw and applies it. Parse failures and diffs for unknown pairs
// leave every book untouched and are returned as errors; neither is fatal.
func (r *Registry) Ingest(raw []byte) (domain.FeedUpdate, error) {
	start := time.Now()
	defer func() { metrics.IngestDuration.Observe(time.Since(start).Seconds()) }()

	update, err := r.parser.Parse(raw)
	if err != nil {
		metrics.FeedMessagesTotal.WithLabelValues("malformed").Inc()
		r.logger.Error("Dropping malformed feed message", zap.Error(err), zap.ByteString("raw", raw))
		r.report(domain.MalformedMessage, "", err.Error(), raw)
		return nil, err
	}

	switch u := update.(type) {
	case domain.Ignored:
		if u.Rejected {
			metrics.FeedMessagesTotal.WithLabelValues("rejected").Inc()
			r.logger.Warn("Exchange rejected request", zap.String("reason", u.Reason), zap.ByteString("raw", raw))
			r.report(domain.SubscriptionRejected, "", u.Reason, raw)
			return u, nil
		}
		metrics.FeedMessagesTotal.WithLabelValues("ignored").Inc()
		r.logger.Debug("Ignoring feed message", zap.String("reason", u.Reason))
		return u, nil
	case domain.Snapshot:
		r.applySnapshot(u)
		metrics.FeedMessagesTotal.WithLabelValues("snapshot").Inc()
		r.notify(u.Pair)
		return u, nil
	case domain.Diff:
		err = r.applyDiffs(u.Pair, []domain.Diff{u})
	case domain.DiffBatch:
		err = r.applyDiffs(u.Pair, u.Diffs)
	default:
		return nil, fmt.Errorf("unsupported feed update %T", update)
	}

	if err != nil {
		metrics.FeedMessagesTotal.WithLabelValues("orphan").Inc()
		r.logger.Warn("Diff received before snapshot, dropping it", zap.Error(err))
		r.report(domain.OrphanDiff, pairOf(update), err.Error(), raw)
		return update, err
	}
	metrics.FeedMessagesTotal.WithLabelValues("diff").Inc()
	r.notify(pairOf(update))
	return update, nil
}

func (r *Registry) applySnapshot(snapshot domain.Snapshot) {
	book := New(snapshot.Pair, snapshot.Asks, snapshot.Bids)

	r.mu.Lock()
	_, replaced := r.books[snapshot.Pair]
	r.books[snapshot.Pair] = book
	r.updatedAt[snapshot.Pair] = r.now()
	r.logState(book)
	r.mu.Unlock()

	if replaced {
		r.logger.Info("Order book replaced by new snapshot for pair: " + snapshot.Pair)
	} else {
		r.logger.Info("Order book created for pair: " + snapshot.Pair)
	}
}

func (r *Registry) applyDiffs(pair string, diffs []domain.Diff) error {
	r.mu.Lock()
	book, ok := r.books[pair]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("pair %s: %w", pair, ErrBookNotFound)
	}
	for _, diff := range diffs {
		book.Update(diff.Side, diff.Elements)
	}
	r.updatedAt[pair] = r.now()
	r.logState(book)
	r.mu.Unlock()
	return nil
}

// logState must be called with r.mu held.
func (r *Registry) logState(book *OrderBook) {
	metrics.BookLevels.WithLabelValues(book.Pair, domain.Ask.String()).Set(float64(book.Len(domain.Ask)))
	metrics.BookLevels.WithLabelValues(book.Pair, domain.Bid.String()).Set(float64(book.Len(domain.Bid)))

	fields := []zap.Field{zap.String("pair", book.Pair)}
	if ask, ok := book.BestAsk(); ok {
		fields = append(fields, zap.Stringer("bestAsk", ask))
	}
	if bid, ok := book.BestBid(); ok {
		fields = append(fields, zap.Stringer("bestBid", bid))
	}
	r.stateLogger.Info("Current book state", fields...)
}

func (r *Registry) report(kind domain.AnomalyKindEnum, pair string, reason string, raw []byte) {
	if r.reporter == nil {
		return
	}
	r.reporter.Report(domain.Anomaly{
		Exchange:  r.exchange,
		Kind:      kind.String(),
		Pair:      pair,
		Reason:    reason,
		Raw:       string(raw),
		CreatedAt: r.now(),
	})
}

func (r *Registry) notify(pair string) {
	r.mu.Lock()
	listeners := r.listeners
	r.mu.Unlock()
	for _, fn := range listeners {
		fn(pair)
	}
}

// Snapshot returns a copy of every book. Later ingests never change the copy.
func (r *Registry) Snapshot() map[string]*OrderBook {
	r.mu.Lock()
	defer r.mu.Unlock()

	output := make(map[string]*OrderBook, len(r.books))
	for pair, book := range r.books {
		output[pair] = book.Clone()
	}
	return output
}

// Book returns a copy of the book for pair.
func (r *Registry) Book(pair string) (*OrderBook, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[pair]
	if !ok {
		return nil, false
	}
	return book.Clone(), true
}

// Pairs lists the pairs that have received a snapshot, sorted.
func (r *Registry) Pairs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	pairs := make([]string, 0, len(r.books))
	for pair := range r.books {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	return pairs
}

// View builds a presentation copy of pair with up to depth levels per side.
func (r *Registry) View(pair string, depth int) (domain.BookView, bool) {
	r.mu.Lock()
	book, ok := r.books[pair]
	if !ok {
		r.mu.Unlock()
		return domain.BookView{}, false
	}
	book = book.Clone()
	updatedAt := r.updatedAt[pair]
	r.mu.Unlock()

	view := domain.BookView{
		Exchange:  r.exchange,
		Pair:      pair,
		Asks:      book.Depth(domain.Ask, depth),
		Bids:      book.Depth(domain.Bid, depth),
		UpdatedAt: updatedAt,
	}
	if ask, ok := book.BestAsk(); ok {
		view.BestAsk = &ask
	}
	if bid, ok := book.BestBid(); ok {
		view.BestBid = &bid
	}
	return view, true
}

func pairOf(update domain.FeedUpdate) string {
	switch u := update.(type) {
	case domain.Snapshot:
		return u.Pair
	case domain.Diff:
		return u.Pair
	case domain.DiffBatch:
		return u.Pair
	}
	return ""
}
