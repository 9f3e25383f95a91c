package domain

type CurrencyEnum int

const (
	XBT CurrencyEnum = iota
	BTC
	ETH
	USD
	EUR
	GBP
	CAD
	JPY
	CHF
	AUD
	USDT
	USDC
	DAI
	LTC
	XRP
	SOL
	ADA
	DOT
	DOGE
	LINK
)

var currencyNames = []string{
	"XBT", "BTC", "ETH", "USD", "EUR", "GBP", "CAD", "JPY", "CHF", "AUD",
	"USDT", "USDC", "DAI", "LTC", "XRP", "SOL", "ADA", "DOT", "DOGE", "LINK",
}

func (e CurrencyEnum) String() string {
	return currencyNames[e]
}

// ParseCurrency matches code exactly against the known currency names.
func ParseCurrency(code string) (CurrencyEnum, bool) {
	for i, name := range currencyNames {
		if name == code {
			return CurrencyEnum(i), true
		}
	}
	return 0, false
}
