package kraken

import (
	"fmt"
	"slices"
	"strings"
)

const (
	subscribeEvent = "subscribe"
	bookChannel    = "book"
)

var supportedDepths = []int{10, 25, 100, 500, 1000}

// NewSubscribeRequest builds the book subscription for pairs. A depth of 0
// leaves the exchange default in place.
func NewSubscribeRequest(pairs []string, depth int) (KrakenSubscribeRequest, error) {
	if len(pairs) == 0 {
		return KrakenSubscribeRequest{}, fmt.Errorf("%w: no pairs", ErrInvalidSubscription)
	}
	for _, pair := range pairs {
		if strings.TrimSpace(pair) == "" {
			return KrakenSubscribeRequest{}, fmt.Errorf("%w: empty pair in %v", ErrInvalidSubscription, pairs)
		}
	}
	if depth != 0 && !slices.Contains(supportedDepths, depth) {
		return KrakenSubscribeRequest{}, fmt.Errorf("%w: unsupported depth %d, expected one of %v", ErrInvalidSubscription, depth, supportedDepths)
	}

	return KrakenSubscribeRequest{
		Event: subscribeEvent,
		Pair:  slices.Clone(pairs),
		Subscription: KrakenSubscriptionEntry{
			Name:  bookChannel,
			Depth: depth,
		},
	}, nil
}
