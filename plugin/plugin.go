// Package plugin provides an extensible plugin system for subchain.
// Plugins can hook into lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the program starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, program any) error
}

// OnShutdown is called when the program stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Creator hooks
// ──────────────────────────────────────────────────

// OnCreatorProfileCreated is called once the creator configuration exists.
type OnCreatorProfileCreated interface {
	Plugin
	OnCreatorProfileCreated(ctx context.Context, cfg *creator.Config) error
}

// OnPricesUpdated is called after a successful price update, empty or not.
type OnPricesUpdated interface {
	Plugin
	OnPricesUpdated(ctx context.Context, before, after *creator.Config) error
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscribed is called when a subscription record is created and paid for.
type OnSubscribed interface {
	Plugin
	OnSubscribed(ctx context.Context, sub *subscription.Subscription, price types.Lamports) error
}

// OnSubscriptionPaused is called when a subscription is paused.
type OnSubscriptionPaused interface {
	Plugin
	OnSubscriptionPaused(ctx context.Context, sub *subscription.Subscription) error
}

// OnSubscriptionResumed is called when a paused subscription resumes.
// pausedFor is the number of seconds the end timestamp was pushed back.
type OnSubscriptionResumed interface {
	Plugin
	OnSubscriptionResumed(ctx context.Context, sub *subscription.Subscription, pausedFor int64) error
}

// OnSubscriptionExtended is called after a paid extension.
type OnSubscriptionExtended interface {
	Plugin
	OnSubscriptionExtended(ctx context.Context, sub *subscription.Subscription, t tier.Tier, price types.Lamports) error
}

// OnSubscriptionCanceled is called after the record is closed and its
// deposit refunded.
type OnSubscriptionCanceled interface {
	Plugin
	OnSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription, refund types.Lamports) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentTransferred is called after each committed transfer batch.
type OnPaymentTransferred interface {
	Plugin
	OnPaymentTransferred(ctx context.Context, transfers []bank.Transfer) error
}

// OnOperationFailed is called when an operation is rejected or fails.
type OnOperationFailed interface {
	Plugin
	OnOperationFailed(ctx context.Context, op string, caller id.ID, err error) error
}
