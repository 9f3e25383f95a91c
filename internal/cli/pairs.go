package cli

import (
	"errors"
	"fmt"
	"strings"

	"kraken-orderbook-watcher/internal/domain"
)

const (
	InvalidPairErrorMsg = "Invalid currency: '%s' provided part of order book pair: '%s'"
	NoArgumentsErrorMsg = "No command line arguments are provided. Expecting: BTC/USD or ETH/USD. Exiting..."
)

var ErrNoArguments = errors.New(NoArgumentsErrorMsg)

type InvalidPairError struct {
	Currency string
	Pair     string
}

func (e *InvalidPairError) Error() string {
	return fmt.Sprintf(InvalidPairErrorMsg, e.Currency, e.Pair)
}

// ParsePairs validates a comma separated pair list such as "ETH/USD,XBT/USD".
// Only the first argument is read. Duplicates are dropped, order is kept.
func ParsePairs(args []string) ([]string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, ErrNoArguments
	}

	pairs := make([]string, 0)
	seen := make(map[string]bool)
	for _, pair := range strings.Split(args[0], ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if err := validatePair(pair); err != nil {
			return nil, err
		}
		if !seen[pair] {
			seen[pair] = true
			pairs = append(pairs, pair)
		}
	}
	if len(pairs) == 0 {
		return nil, ErrNoArguments
	}
	return pairs, nil
}

func validatePair(pair string) error {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 {
		return &InvalidPairError{Currency: pair, Pair: pair}
	}
	for _, currency := range parts {
		if _, ok := domain.ParseCurrency(currency); !ok {
			return &InvalidPairError{Currency: currency, Pair: pair}
		}
	}
	return nil
}
