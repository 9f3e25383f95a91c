package domain

import (
	"time"
	"unicode/utf8"
)

type AnomalyKindEnum int

const (
	MalformedMessage AnomalyKindEnum = iota
	OrphanDiff
	SubscriptionRejected
)

func (e AnomalyKindEnum) String() string {
	return []string{"MalformedMessage", "OrphanDiff", "SubscriptionRejected"}[e]
}

// Anomaly records a feed message that could not be applied to any book.
type Anomaly struct {
	ID        int64     `json:"id"`
	Exchange  string    `json:"exchange"`
	Kind      string    `json:"kind"`
	Pair      string    `json:"pair,omitempty"`
	Reason    string    `json:"reason"`
	Raw       string    `json:"raw"`
	CreatedAt time.Time `json:"createdAt"`
}

// RawPrefix returns Raw cut to at most max bytes without splitting a UTF-8
// sequence, and whether it was cut.
func (a Anomaly) RawPrefix(max int) (string, bool) {
	if len(a.Raw) <= max {
		return a.Raw, false
	}
	end := max
	for end > 0 && !utf8.RuneStart(a.Raw[end]) {
		end--
	}
	return a.Raw[:end], true
}
