package kraken

import (
	"bytes"
	"fmt"
	"strings"

	"kraken-orderbook-watcher/internal/domain"

	"github.com/bitly/go-simplejson"
	"github.com/shopspring/decimal"
)

// Payload keys of the book channel.
const (
	snapshotAsksKey = "as"
	snapshotBidsKey = "bs"
	asksDiffKey     = "a"
	bidsDiffKey     = "b"
	eventKey        = "event"
	statusKey       = "status"
	errorMessageKey = "errorMessage"
	pairKey         = "pair"
	statusError     = "error"

	// maxExponent bounds the decimal exponent of prices and volumes.
	maxExponent = 32
)

// Parser decodes Kraken websocket v1 book messages:
//
//	[channelID, {"as": [...], "bs": [...]}, "book-10", "ETH/USD"]
//	[channelID, {"a": [...], "c": "..."}, "book-10", "ETH/USD"]
//	[channelID, {"a": [...]}, {"b": [...], "c": "..."}, "book-10", "ETH/USD"]
//
// Objects carrying an "event" field are control messages.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(raw []byte) (domain.FeedUpdate, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return domain.Ignored{Reason: "empty message"}, nil
	}

	message, err := simplejson.NewJson(raw)
	if err != nil {
		return nil, malformed("invalid json", err)
	}

	if _, err := message.Map(); err == nil {
		event, ok := message.CheckGet(eventKey)
		if !ok {
			return nil, malformed("object message without event field", nil)
		}
		name, _ := event.String()
		return eventMessage(name, message), nil
	}

	envelope, err := message.Array()
	if err != nil {
		return nil, malformed("message is neither an object nor an array", err)
	}
	if len(envelope) < 4 {
		return nil, malformed(fmt.Sprintf("envelope has %d elements, expected at least 4", len(envelope)), nil)
	}

	channel, err := message.GetIndex(len(envelope) - 2).String()
	if err != nil {
		return nil, malformed("missing channel name", err)
	}
	if !strings.HasPrefix(channel, bookChannel) {
		return domain.Ignored{Reason: "channel " + channel}, nil
	}
	pair, err := message.GetIndex(len(envelope) - 1).String()
	if err != nil || pair == "" {
		return nil, malformed("last envelope element is not a pair", err)
	}

	payloads := len(envelope) - 3
	switch payloads {
	case 1:
		return parsePayload(pair, message.GetIndex(1))
	case 2:
		batch := domain.DiffBatch{Pair: pair, Diffs: make([]domain.Diff, 0, payloads)}
		for i := 1; i <= payloads; i++ {
			diff, err := parseDiff(pair, message.GetIndex(i))
			if err != nil {
				return nil, err
			}
			batch.Diffs = append(batch.Diffs, diff)
		}
		return batch, nil
	}
	return nil, malformed(fmt.Sprintf("envelope carries %d payload objects", payloads), nil)
}

// eventMessage describes a control message. A status of "error" marks it
// rejected, e.g. a subscription for a pair the exchange does not list.
func eventMessage(name string, message *simplejson.Json) domain.Ignored {
	status := message.Get(statusKey).MustString()
	if status != statusError {
		if status != "" {
			return domain.Ignored{Reason: "event " + name + " " + status}
		}
		return domain.Ignored{Reason: "event " + name}
	}

	reason := "event " + name + " error"
	if pair := message.Get(pairKey).MustString(); pair != "" {
		reason += " for " + pair
	}
	if errorMessage := message.Get(errorMessageKey).MustString(); errorMessage != "" {
		reason += ": " + errorMessage
	}
	return domain.Ignored{Reason: reason, Rejected: true}
}

func parsePayload(pair string, payload *simplejson.Json) (domain.FeedUpdate, error) {
	if _, err := payload.Map(); err != nil {
		return nil, malformed("payload is not an object", err)
	}

	asks, hasAsks := payload.CheckGet(snapshotAsksKey)
	bids, hasBids := payload.CheckGet(snapshotBidsKey)
	if hasAsks != hasBids {
		return nil, malformed("snapshot carries only one side", nil)
	}
	if hasAsks {
		askLevels, err := parseLevels(asks)
		if err != nil {
			return nil, err
		}
		bidLevels, err := parseLevels(bids)
		if err != nil {
			return nil, err
		}
		return domain.Snapshot{Pair: pair, Asks: askLevels, Bids: bidLevels}, nil
	}

	diff, err := parseDiff(pair, payload)
	if err != nil {
		return nil, err
	}
	return diff, nil
}

func parseDiff(pair string, payload *simplejson.Json) (domain.Diff, error) {
	if _, err := payload.Map(); err != nil {
		return domain.Diff{}, malformed("payload is not an object", err)
	}

	asks, hasAsks := payload.CheckGet(asksDiffKey)
	bids, hasBids := payload.CheckGet(bidsDiffKey)

	var side domain.SideEnum
	var levels *simplejson.Json
	switch {
	case hasAsks && hasBids:
		return domain.Diff{}, malformed("diff payload carries both sides", nil)
	case hasAsks:
		side, levels = domain.Ask, asks
	case hasBids:
		side, levels = domain.Bid, bids
	default:
		return domain.Diff{}, malformed("payload has no book keys", nil)
	}

	elements, err := parseLevels(levels)
	if err != nil {
		return domain.Diff{}, err
	}
	return domain.Diff{Pair: pair, Side: side, Elements: elements}, nil
}

// parseLevels decodes [price, volume, timestamp, ...] tuples; fields after volume are ignored.
func parseLevels(node *simplejson.Json) ([]domain.PriceLevel, error) {
	entries, err := node.Array()
	if err != nil {
		return nil, malformed("price levels are not an array", err)
	}

	levels := make([]domain.PriceLevel, 0, len(entries))
	for i := range entries {
		entry := node.GetIndex(i)
		fields, err := entry.Array()
		if err != nil || len(fields) < 2 {
			return nil, malformed(fmt.Sprintf("level %d is not a [price, volume, ...] tuple", i), err)
		}
		price, err := parseDecimal(entry.GetIndex(0))
		if err != nil {
			return nil, malformed(fmt.Sprintf("level %d price", i), err)
		}
		volume, err := parseDecimal(entry.GetIndex(1))
		if err != nil {
			return nil, malformed(fmt.Sprintf("level %d volume", i), err)
		}
		levels = append(levels, domain.PriceLevel{Price: price, Volume: volume})
	}
	return levels, nil
}

func parseDecimal(node *simplejson.Json) (decimal.Decimal, error) {
	text, err := node.String()
	if err != nil {
		return decimal.Decimal{}, err
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if exponent := value.Exponent(); exponent < -maxExponent || exponent > maxExponent {
		return decimal.Decimal{}, fmt.Errorf("exponent %d of %q out of range", exponent, text)
	}
	return value, nil
}
