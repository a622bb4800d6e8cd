package subscription

import (
	"context"

	"github.com/xraph/subchain/address"
)

// Store persists subscription records keyed by address. CreateSubscription
// must fail when a record already exists at the address.
type Store interface {
	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, addr address.Address) (*Subscription, error)
	UpdateSubscription(ctx context.Context, s *Subscription) error
	DeleteSubscription(ctx context.Context, addr address.Address) error

	// CountActive counts records that are unpaused and unexpired at now.
	CountActive(ctx context.Context, now int64) (int64, error)
}
