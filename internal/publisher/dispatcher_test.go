package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kraken-orderbook-watcher/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeSource) View(pair string, depth int) (domain.BookView, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[pair]++
	if pair == "UNKNOWN" {
		return domain.BookView{}, false
	}
	return domain.BookView{Pair: pair, Asks: make([]domain.PriceLevel, 0, depth)}, true
}

type recordingSink struct {
	name  string
	err   error
	mu    sync.Mutex
	views []domain.BookView
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, view domain.BookView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, view)
	return s.err
}

func (s *recordingSink) pairs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	pairs := make([]string, 0, len(s.views))
	for _, view := range s.views {
		pairs = append(pairs, view.Pair)
	}
	return pairs
}

func TestDispatcherCoalescesPendingChanges(t *testing.T) {
	source := &fakeSource{calls: make(map[string]int)}
	sink := &recordingSink{name: "test"}
	dispatcher := NewDispatcher(source, 5, zap.NewNop(), sink)

	dispatcher.Notify("XBT/USD")
	dispatcher.Notify("ETH/USD")
	dispatcher.Notify("XBT/USD")
	dispatcher.Notify("UNKNOWN")
	dispatcher.flush(context.Background())

	assert.Equal(t, []string{"ETH/USD", "XBT/USD"}, sink.pairs())
	assert.Equal(t, 1, source.calls["XBT/USD"])
}

func TestDispatcherKeepsPublishingWhenOneSinkFails(t *testing.T) {
	source := &fakeSource{calls: make(map[string]int)}
	failing := &recordingSink{name: "failing", err: errors.New("down")}
	healthy := &recordingSink{name: "healthy"}
	dispatcher := NewDispatcher(source, 5, zap.NewNop(), failing, healthy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	dispatcher.Notify("ETH/USD")

	require.Eventually(t, func() bool { return len(healthy.pairs()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"ETH/USD"}, failing.pairs())
}

func TestNotifyNeverBlocks(t *testing.T) {
	dispatcher := NewDispatcher(&fakeSource{calls: make(map[string]int)}, 5, zap.NewNop())

	for i := 0; i < 1000; i++ {
		dispatcher.Notify("ETH/USD")
	}

	assert.Len(t, dispatcher.dirty, 1)
}
