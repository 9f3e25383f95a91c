package orderbook

import (
	"kraken-orderbook-watcher/internal/domain"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

const btreeDegree = 8

// PriceLevelMap is one side of a book: volumes keyed by exact price.
type PriceLevelMap struct {
	tree *btree.BTreeG[domain.PriceLevel]
}

func byPrice(a, b domain.PriceLevel) bool {
	return a.Price.Cmp(b.Price) < 0
}

func NewPriceLevelMap(levels ...domain.PriceLevel) *PriceLevelMap {
	levelMap := &PriceLevelMap{tree: btree.NewG(btreeDegree, byPrice)}
	levelMap.Apply(levels)
	return levelMap
}

func (m *PriceLevelMap) Upsert(price, volume decimal.Decimal) {
	m.tree.ReplaceOrInsert(domain.PriceLevel{Price: price, Volume: volume})
}

func (m *PriceLevelMap) Remove(price decimal.Decimal) {
	m.tree.Delete(domain.PriceLevel{Price: price})
}

// Apply upserts every level, except that a zero volume removes the price.
func (m *PriceLevelMap) Apply(levels []domain.PriceLevel) {
	for _, level := range levels {
		if level.Volume.IsZero() {
			m.Remove(level.Price)
			continue
		}
		m.Upsert(level.Price, level.Volume)
	}
}

func (m *PriceLevelMap) Get(price decimal.Decimal) (decimal.Decimal, bool) {
	level, ok := m.tree.Get(domain.PriceLevel{Price: price})
	return level.Volume, ok
}

func (m *PriceLevelMap) Min() (domain.PriceLevel, bool) {
	return m.tree.Min()
}

func (m *PriceLevelMap) Max() (domain.PriceLevel, bool) {
	return m.tree.Max()
}

func (m *PriceLevelMap) Len() int {
	return m.tree.Len()
}

// Ascend calls fn from the lowest price upwards until fn returns false.
func (m *PriceLevelMap) Ascend(fn func(level domain.PriceLevel) bool) {
	m.tree.Ascend(fn)
}

// Descend calls fn from the highest price downwards until fn returns false.
func (m *PriceLevelMap) Descend(fn func(level domain.PriceLevel) bool) {
	m.tree.Descend(fn)
}

// Clone is copy-on-write. It must not run concurrently with writes to m.
func (m *PriceLevelMap) Clone() *PriceLevelMap {
	return &PriceLevelMap{tree: m.tree.Clone()}
}
