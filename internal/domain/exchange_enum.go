package domain

type ExchangeEnum int

const (
	Kraken ExchangeEnum = iota
)

func (e ExchangeEnum) String() string {
	return []string{"Kraken"}[e]
}
