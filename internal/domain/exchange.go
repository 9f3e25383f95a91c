package domain

import "context"

type Exchanger interface {
	// SubscribeSocket streams the book channel for pairs until ctx is done.
	SubscribeSocket(ctx context.Context, pairs []string) (err error)
	GetName() string
}
