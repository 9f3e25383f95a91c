package domain

import "errors"

// ErrMalformedMessage is matched by every parse failure a feed parser returns.
var ErrMalformedMessage = errors.New("malformed feed message")

// FeedUpdate is the decoded form of one inbound feed message.
// Implementations: Snapshot, Diff, DiffBatch and Ignored.
type FeedUpdate interface {
	feedUpdate()
}

type Snapshot struct {
	Pair string
	Asks []PriceLevel
	Bids []PriceLevel
}

// Diff updates exactly one side of a pair's book.
type Diff struct {
	Pair     string
	Side     SideEnum
	Elements []PriceLevel
}

// DiffBatch carries several one-sided diffs decoded from a single message,
// applied in order.
type DiffBatch struct {
	Pair  string
	Diffs []Diff
}

// Ignored is a recognised message that carries no book data. Rejected is set
// when the exchange answered a request with an error status.
type Ignored struct {
	Reason   string
	Rejected bool
}

func (Snapshot) feedUpdate()  {}
func (Diff) feedUpdate()      {}
func (DiffBatch) feedUpdate() {}
func (Ignored) feedUpdate()   {}
