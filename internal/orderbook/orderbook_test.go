package orderbook_test

import (
	"testing"

	"kraken-orderbook-watcher/internal/domain"
	"kraken-orderbook-watcher/internal/orderbook"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestAskAndBestBid(t *testing.T) {
	book := orderbook.New("ETH/USD",
		[]domain.PriceLevel{level("16.10", "6.30"), level("16.50", "1")},
		[]domain.PriceLevel{level("16.000", "0.007"), level("15.5", "3")})

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Price.Equal(price("16.10")))
	assert.True(t, ask.Volume.Equal(price("6.30")))

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Price.Equal(price("16.00")))
	assert.True(t, bid.Volume.Equal(price("0.007")))
}

func TestEmptySideHasNoBest(t *testing.T) {
	book := orderbook.New("ETH/USD", nil, []domain.PriceLevel{level("1", "1")})

	_, ok := book.BestAsk()
	assert.False(t, ok)

	book.UpdateBids([]domain.PriceLevel{level("1", "0")})
	_, ok = book.BestBid()
	assert.False(t, ok)
}

func TestSnapshotDropsZeroVolumeLevels(t *testing.T) {
	book := orderbook.New("ETH/USD", []domain.PriceLevel{level("1", "0"), level("2", "1")}, nil)

	assert.Equal(t, 1, book.Len(domain.Ask))
}

func TestEmptyDiffLeavesBestUnchanged(t *testing.T) {
	book := orderbook.New("ETH/USD",
		[]domain.PriceLevel{level("16.10", "6.30")},
		[]domain.PriceLevel{level("16.00", "0.007")})
	askBefore, _ := book.BestAsk()
	bidBefore, _ := book.BestBid()

	book.UpdateAsks(nil)
	book.UpdateBids([]domain.PriceLevel{})

	askAfter, _ := book.BestAsk()
	bidAfter, _ := book.BestBid()
	assert.Equal(t, askBefore, askAfter)
	assert.Equal(t, bidBefore, bidAfter)
}

func TestBestIsMinAskAndMaxBid(t *testing.T) {
	tests := []struct {
		name string
		asks []string
		bids []string
	}{
		{name: "single", asks: []string{"5"}, bids: []string{"4"}},
		{name: "unsorted", asks: []string{"7", "5.5", "9", "5.25"}, bids: []string{"1", "4.75", "3", "4.5"}},
		{name: "trailing zeros", asks: []string{"16063.20000", "16059.4"}, bids: []string{"1500.20000", "1500.2001"}},
		{name: "tiny increments", asks: []string{"0.00000002", "0.00000001"}, bids: []string{"0.00000003", "0.000000031"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := orderbook.New("XBT/USD", levelsAt(tt.asks), levelsAt(tt.bids))

			ask, ok := book.BestAsk()
			require.True(t, ok)
			assert.True(t, ask.Price.Equal(decimal.Min(prices(tt.asks)[0], prices(tt.asks)...)))

			bid, ok := book.BestBid()
			require.True(t, ok)
			assert.True(t, bid.Price.Equal(decimal.Max(prices(tt.bids)[0], prices(tt.bids)...)))
		})
	}
}

func TestDiffsTouchOnlyTheirSide(t *testing.T) {
	book := orderbook.New("ETH/USD",
		[]domain.PriceLevel{level("10", "1")},
		[]domain.PriceLevel{level("9", "1")})

	book.Update(domain.Ask, []domain.PriceLevel{level("10", "0"), level("11", "2")})

	assert.Equal(t, []domain.PriceLevel{level("9", "1")}, book.Depth(domain.Bid, 0))

	book.Update(domain.Bid, []domain.PriceLevel{level("9", "0")})

	assert.Equal(t, []domain.PriceLevel{level("11", "2")}, book.Depth(domain.Ask, 0))
	assert.Equal(t, 0, book.Len(domain.Bid))
}

func TestIterationIsOrderedAndReflectsCurrentState(t *testing.T) {
	book := orderbook.New("ETH/USD",
		[]domain.PriceLevel{level("12", "1"), level("11", "1")},
		[]domain.PriceLevel{level("9", "1"), level("10", "1")})

	asks := book.Asks()
	assert.Equal(t, []string{"11", "12"}, priceStrings(asks))
	assert.Equal(t, []string{"10", "9"}, priceStrings(book.Bids()))

	book.UpdateAsks([]domain.PriceLevel{level("10.5", "1")})

	assert.Equal(t, []string{"10.5", "11", "12"}, priceStrings(asks))
}

func TestDepthLimitsFromBestPrice(t *testing.T) {
	book := orderbook.New("ETH/USD",
		[]domain.PriceLevel{level("3", "1"), level("1", "1"), level("2", "1")},
		[]domain.PriceLevel{level("0.5", "1"), level("0.9", "1"), level("0.7", "1")})

	assert.Equal(t, []domain.PriceLevel{level("1", "1"), level("2", "1")}, book.Depth(domain.Ask, 2))
	assert.Equal(t, []domain.PriceLevel{level("0.9", "1")}, book.Depth(domain.Bid, 1))
	assert.Len(t, book.Depth(domain.Bid, 0), 3)
}

func TestCloneDoesNotFollowLaterUpdates(t *testing.T) {
	book := orderbook.New("ETH/USD", []domain.PriceLevel{level("1", "1")}, nil)
	clone := book.Clone()

	book.UpdateAsks([]domain.PriceLevel{level("1", "0")})

	_, ok := clone.BestAsk()
	assert.True(t, ok)
	_, ok = book.BestAsk()
	assert.False(t, ok)
}

func levelsAt(texts []string) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, len(texts))
	for _, text := range texts {
		levels = append(levels, level(text, "1"))
	}
	return levels
}

func prices(texts []string) []decimal.Decimal {
	output := make([]decimal.Decimal, 0, len(texts))
	for _, text := range texts {
		output = append(output, price(text))
	}
	return output
}

func priceStrings(levels func(func(domain.PriceLevel) bool)) []string {
	output := make([]string, 0)
	for l := range levels {
		output = append(output, l.Price.String())
	}
	return output
}
