package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Volume decimal.Decimal `json:"volume"`
}

func (l PriceLevel) String() string {
	return "[" + l.Price.String() + ", " + l.Volume.String() + "]"
}

// BookView is a point-in-time copy of one pair's book handed to presentation sinks.
type BookView struct {
	Exchange  string       `json:"exchange"`
	Pair      string       `json:"pair"`
	BestAsk   *PriceLevel  `json:"bestAsk"`
	BestBid   *PriceLevel  `json:"bestBid"`
	Asks      []PriceLevel `json:"asks"`
	Bids      []PriceLevel `json:"bids"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
