// Package subscription defines the per-subscriber subscription record and
// its derived lifecycle state.
package subscription

import (
	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// State is the lifecycle state of a subscription at a given instant. It is
// derived from the stored fields and never persisted.
type State string

const (
	StateNonExistent State = "non_existent"
	StateActive      State = "active"
	StatePaused      State = "paused"
	StateExpired     State = "expired"
)

// Subscription is one subscriber's time-bounded entitlement. PausedAt == 0
// means not paused.
type Subscription struct {
	types.Entity
	Address      address.Address `json:"address"`
	Subscriber   id.AccountID    `json:"subscriber"`
	Tier         tier.Tier       `json:"tier"`
	EndTimestamp int64           `json:"end_timestamp"`
	PausedAt     int64           `json:"paused_at"`
	Bump         uint8           `json:"bump"`
	Deposit      types.Lamports  `json:"deposit"`
}

// IsPaused reports whether the subscription is currently paused.
func (s *Subscription) IsPaused() bool { return s.PausedAt != 0 }

// IsExpired reports whether the end timestamp has been reached at now.
func (s *Subscription) IsExpired(now int64) bool { return s.EndTimestamp <= now }

// StateAt derives the lifecycle state at now. A nil subscription is
// StateNonExistent.
func (s *Subscription) StateAt(now int64) State {
	switch {
	case s == nil:
		return StateNonExistent
	case s.IsPaused():
		return StatePaused
	case s.IsExpired(now):
		return StateExpired
	default:
		return StateActive
	}
}

// Remaining returns the seconds left at now, frozen at the pause instant
// while paused. Never negative.
func (s *Subscription) Remaining(now int64) int64 {
	at := now
	if s.IsPaused() {
		at = s.PausedAt
	}
	if r := s.EndTimestamp - at; r > 0 {
		return r
	}
	return 0
}
