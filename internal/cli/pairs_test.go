package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePairsAcceptsValidPairs(t *testing.T) {
	pairs, err := ParsePairs([]string{"ETH/USD,BTC/USD"})

	require.NoError(t, err)
	assert.Equal(t, []string{"ETH/USD", "BTC/USD"}, pairs)
}

func TestParsePairsWithoutArguments(t *testing.T) {
	for _, args := range [][]string{nil, {}, {""}, {" , "}} {
		_, err := ParsePairs(args)

		require.ErrorIs(t, err, ErrNoArguments)
		assert.Equal(t, NoArgumentsErrorMsg, err.Error())
	}
}

func TestParsePairsRejectsUnknownCurrency(t *testing.T) {
	_, err := ParsePairs([]string{"ETT/USD"})

	var invalid *InvalidPairError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, fmt.Sprintf(InvalidPairErrorMsg, "ETT", "ETT/USD"), err.Error())
}

func TestParsePairsRejectsQuoteCurrency(t *testing.T) {
	_, err := ParsePairs([]string{"XBT/US"})

	assert.EqualError(t, err, fmt.Sprintf(InvalidPairErrorMsg, "US", "XBT/US"))
}

func TestParsePairsRejectsPairWithoutSeparator(t *testing.T) {
	_, err := ParsePairs([]string{"ETHUSD"})

	assert.EqualError(t, err, fmt.Sprintf(InvalidPairErrorMsg, "ETHUSD", "ETHUSD"))
}

func TestParsePairsTrimsAndDeduplicates(t *testing.T) {
	pairs, err := ParsePairs([]string{" XBT/USD , ETH/EUR,XBT/USD,"})

	require.NoError(t, err)
	assert.Equal(t, []string{"XBT/USD", "ETH/EUR"}, pairs)
}
