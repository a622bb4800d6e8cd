// Package store defines the composite persistence interface for subchain.
package store

import (
	"context"

	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/subscription"
)

// Store is the unified storage interface for all subchain records.
//
// Backends translate missing records into subchain.ErrConfigNotFound and
// subchain.ErrSubscriptionNotFound, and occupied addresses on create into
// subchain.ErrConfigAlreadyInitialized and subchain.ErrSubscriptionExists.
type Store interface {
	creator.Store
	subscription.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
