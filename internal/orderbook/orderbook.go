package orderbook

import (
	"iter"

	"kraken-orderbook-watcher/internal/domain"
)

// OrderBook holds both sides of one pair. It does no locking; the owning
// Registry serialises writers and readers.
type OrderBook struct {
	Pair string
	asks *PriceLevelMap
	bids *PriceLevelMap
}

// New materialises a book from snapshot levels. Zero volume levels are dropped.
func New(pair string, asks []domain.PriceLevel, bids []domain.PriceLevel) *OrderBook {
	return &OrderBook{
		Pair: pair,
		asks: NewPriceLevelMap(asks...),
		bids: NewPriceLevelMap(bids...),
	}
}

func (b *OrderBook) UpdateAsks(elements []domain.PriceLevel) {
	b.asks.Apply(elements)
}

func (b *OrderBook) UpdateBids(elements []domain.PriceLevel) {
	b.bids.Apply(elements)
}

func (b *OrderBook) Update(side domain.SideEnum, elements []domain.PriceLevel) {
	if side == domain.Bid {
		b.UpdateBids(elements)
		return
	}
	b.UpdateAsks(elements)
}

// BestAsk returns the lowest ask. ok is false when there are no asks.
func (b *OrderBook) BestAsk() (level domain.PriceLevel, ok bool) {
	return b.asks.Min()
}

// BestBid returns the highest bid. ok is false when there are no bids.
func (b *OrderBook) BestBid() (level domain.PriceLevel, ok bool) {
	return b.bids.Max()
}

// Asks yields asks from the lowest price. Each iteration reads the current state.
func (b *OrderBook) Asks() iter.Seq[domain.PriceLevel] {
	return func(yield func(domain.PriceLevel) bool) {
		b.asks.Ascend(yield)
	}
}

// Bids yields bids from the highest price. Each iteration reads the current state.
func (b *OrderBook) Bids() iter.Seq[domain.PriceLevel] {
	return func(yield func(domain.PriceLevel) bool) {
		b.bids.Descend(yield)
	}
}

// Depth returns up to n levels of side starting from the best price; n <= 0 returns all.
func (b *OrderBook) Depth(side domain.SideEnum, n int) []domain.PriceLevel {
	levels := b.Asks()
	if side == domain.Bid {
		levels = b.Bids()
	}

	output := make([]domain.PriceLevel, 0)
	for level := range levels {
		if n > 0 && len(output) == n {
			break
		}
		output = append(output, level)
	}
	return output
}

func (b *OrderBook) Len(side domain.SideEnum) int {
	if side == domain.Bid {
		return b.bids.Len()
	}
	return b.asks.Len()
}

func (b *OrderBook) Clone() *OrderBook {
	return &OrderBook{
		Pair: b.Pair,
		asks: b.asks.Clone(),
		bids: b.bids.Clone(),
	}
}
