package orderbook_test

import (
	"kraken-orderbook-watcher/internal/domain"

	"github.com/shopspring/decimal"
)

func level(price, volume string) domain.PriceLevel {
	return domain.PriceLevel{
		Price:  decimal.RequireFromString(price),
		Volume: decimal.RequireFromString(volume),
	}
}

func price(text string) decimal.Decimal {
	return decimal.RequireFromString(text)
}
