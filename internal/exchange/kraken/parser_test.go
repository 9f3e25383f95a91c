package kraken

import (
	"errors"
	"testing"

	"kraken-orderbook-watcher/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func level(price, volume string) domain.PriceLevel {
	return domain.PriceLevel{
		Price:  decimal.RequireFromString(price),
		Volume: decimal.RequireFromString(volume),
	}
}

func TestParseSnapshot(t *testing.T) {
	raw := `[336,{"as":[["16.10","6.30","1669028780.983665"]],"bs":[["16.000","0.007","1669028775.666380"]]},"book-10","ETH/USD"]`

	update, err := NewParser().Parse([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, domain.Snapshot{
		Pair: "ETH/USD",
		Asks: []domain.PriceLevel{level("16.10", "6.30")},
		Bids: []domain.PriceLevel{level("16.000", "0.007")},
	}, update)
}

func TestParseAsksDiffIgnoresTrailingFieldsAndChecksum(t *testing.T) {
	raw := `[336, { "a":[["16059.40000", "0.00000000", "1669031634.946619"],["16063.20000", "1.87", "1669031634.050850", "r"]],"c":"2867552989"},"book-10", "XBT/USD"]`

	update, err := NewParser().Parse([]byte(raw))

	require.NoError(t, err)
	diff, ok := update.(domain.Diff)
	require.True(t, ok)
	assert.Equal(t, "XBT/USD", diff.Pair)
	assert.Equal(t, domain.Ask, diff.Side)
	require.Len(t, diff.Elements, 2)
	assert.True(t, diff.Elements[0].Volume.IsZero())
	assert.Equal(t, level("16063.20000", "1.87"), diff.Elements[1])
}

func TestParseBidsDiff(t *testing.T) {
	raw := `[336,{"b":[["1500.20000","1.40","1669031634.050850","r"]],"c":"1"},"book-25","XBT/USD"]`

	update, err := NewParser().Parse([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, domain.Diff{Pair: "XBT/USD", Side: domain.Bid, Elements: []domain.PriceLevel{level("1500.20000", "1.40")}}, update)
}

func TestParseTwoPayloadEnvelope(t *testing.T) {
	raw := `[336,{"a":[["10","1","1"]]},{"b":[["9","0","1"]],"c":"12"},"book-10","XBT/USD"]`

	update, err := NewParser().Parse([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, domain.DiffBatch{
		Pair: "XBT/USD",
		Diffs: []domain.Diff{
			{Pair: "XBT/USD", Side: domain.Ask, Elements: []domain.PriceLevel{level("10", "1")}},
			{Pair: "XBT/USD", Side: domain.Bid, Elements: []domain.PriceLevel{level("9", "0")}},
		},
	}, update)
}

func TestParseIgnoredMessages(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace", raw: " \n\t"},
		{name: "system status", raw: `{"connectionID":8563586709029910710,"event":"systemStatus","status":"online","version":"1.9.0"}`},
		{name: "subscription status", raw: `{"channelID":336,"channelName":"book-10","event":"subscriptionStatus","pair":"ETH/USD","status":"subscribed","subscription":{"depth":10,"name":"book"}}`},
		{name: "heartbeat", raw: `{"event":"heartbeat"}`},
		{name: "other channel", raw: `[42,{"c":["1","2"]},"ticker","XBT/USD"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := NewParser().Parse([]byte(tt.raw))

			require.NoError(t, err)
			assert.IsType(t, domain.Ignored{}, update)
		})
	}
}

func TestParseMalformedMessages(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "invalid json", raw: `[336,{"a":`},
		{name: "object without event", raw: `{"status":"online"}`},
		{name: "scalar", raw: `42`},
		{name: "short envelope", raw: `[336,{"a":[]},"ETH/USD"]`},
		{name: "pair not a string", raw: `[336,{"a":[]},"book-10",7]`},
		{name: "empty pair", raw: `[336,{"a":[]},"book-10",""]`},
		{name: "channel not a string", raw: `[336,{"a":[]},10,"ETH/USD"]`},
		{name: "payload not an object", raw: `[336,[1,2],"book-10","ETH/USD"]`},
		{name: "no book keys", raw: `[336,{"c":"1"},"book-10","ETH/USD"]`},
		{name: "snapshot missing bids", raw: `[336,{"as":[["1","1","1"]]},"book-10","ETH/USD"]`},
		{name: "both diff sides in one object", raw: `[336,{"a":[],"b":[]},"book-10","ETH/USD"]`},
		{name: "levels not an array", raw: `[336,{"a":"1"},"book-10","ETH/USD"]`},
		{name: "short tuple", raw: `[336,{"a":[["1"]]},"book-10","ETH/USD"]`},
		{name: "numeric price", raw: `[336,{"a":[[1.5,"1","1"]]},"book-10","ETH/USD"]`},
		{name: "unparsable volume", raw: `[336,{"b":[["1.5","abc","1"]]},"book-10","ETH/USD"]`},
		{name: "exponent price", raw: `[336,{"a":[["1e2000000000","1","1"]]},"book-10","ETH/USD"]`},
		{name: "negative exponent volume", raw: `[336,{"b":[["1.5","1e-2000000000","1"]]},"book-10","ETH/USD"]`},
		{name: "snapshot in batch", raw: `[336,{"as":[],"bs":[]},{"b":[]},"book-10","ETH/USD"]`},
		{name: "too many payloads", raw: `[336,{"a":[]},{"b":[]},{"a":[]},"book-10","ETH/USD"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := NewParser().Parse([]byte(tt.raw))

			require.Error(t, err)
			assert.Nil(t, update)
			assert.True(t, errors.Is(err, domain.ErrMalformedMessage))
			var malformedErr *MalformedMessageError
			assert.True(t, errors.As(err, &malformedErr))
		})
	}
}

func TestParseAcceptsSmallExponents(t *testing.T) {
	update, err := NewParser().Parse([]byte(`[336,{"a":[["1.5e3","2E-4","1"]]},"book-10","ETH/USD"]`))

	require.NoError(t, err)
	diff, ok := update.(domain.Diff)
	require.True(t, ok)
	require.Len(t, diff.Elements, 1)
	assert.True(t, diff.Elements[0].Price.Equal(decimal.RequireFromString("1500")))
	assert.True(t, diff.Elements[0].Volume.Equal(decimal.RequireFromString("0.0002")))
}

func TestParseSubscriptionError(t *testing.T) {
	update, err := NewParser().Parse([]byte(`{"errorMessage":"Currency pair not supported XBT/EUX","event":"subscriptionStatus","pair":"XBT/EUX","status":"error","subscription":{"name":"book"}}`))

	require.NoError(t, err)
	assert.Equal(t, domain.Ignored{
		Reason:   "event subscriptionStatus error for XBT/EUX: Currency pair not supported XBT/EUX",
		Rejected: true,
	}, update)
}

func TestParseSubscriptionStatusKeepsStatus(t *testing.T) {
	update, err := NewParser().Parse([]byte(`{"channelID":336,"event":"subscriptionStatus","pair":"ETH/USD","status":"subscribed"}`))

	require.NoError(t, err)
	assert.Equal(t, domain.Ignored{Reason: "event subscriptionStatus subscribed"}, update)
}
