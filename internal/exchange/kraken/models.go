package kraken

import (
	"errors"
	"fmt"

	"kraken-orderbook-watcher/internal/domain"
)

// ErrInvalidSubscription is returned before any network I/O when the pair set is unusable.
var ErrInvalidSubscription = errors.New("invalid subscription request")

// MalformedMessageError describes why a feed message could not be decoded.
type MalformedMessageError struct {
	Reason string
	Err    error
}

func (e *MalformedMessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed feed message: %s: %v", e.Reason, e.Err)
	}
	return "malformed feed message: " + e.Reason
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}

func (e *MalformedMessageError) Is(target error) bool {
	return target == domain.ErrMalformedMessage
}

func malformed(reason string, err error) error {
	return &MalformedMessageError{Reason: reason, Err: err}
}

type KrakenSubscribeRequest struct {
	Event        string                  `json:"event"`
	Pair         []string                `json:"pair"`
	Subscription KrakenSubscriptionEntry `json:"subscription"`
}

type KrakenSubscriptionEntry struct {
	Name  string `json:"name"`
	Depth int    `json:"depth,omitempty"`
}
