// Package memory provides an in-process Store for tests and single-node use.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/store"
	"github.com/xraph/subchain/subscription"
)

// Store keeps records in maps keyed by address. Records are copied on the
// way in and out so callers never share state with the store.
type Store struct {
	mu     sync.RWMutex
	closed bool

	configs       map[address.Address]creator.Config
	subscriptions map[address.Address]subscription.Subscription
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		configs:       make(map[address.Address]creator.Config),
		subscriptions: make(map[address.Address]subscription.Subscription),
	}
}

// ──────────────────────────────────────────────────
// Creator config
// ──────────────────────────────────────────────────

func (s *Store) CreateConfig(_ context.Context, c *creator.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subchain.ErrStoreClosed
	}
	if _, exists := s.configs[c.Address]; exists {
		return subchain.ErrConfigAlreadyInitialized
	}
	s.configs[c.Address] = *c
	return nil
}

func (s *Store) GetConfig(_ context.Context, addr address.Address) (*creator.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, subchain.ErrStoreClosed
	}
	c, ok := s.configs[addr]
	if !ok {
		return nil, subchain.ErrConfigNotFound
	}
	return &c, nil
}

func (s *Store) UpdateConfig(_ context.Context, c *creator.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subchain.ErrStoreClosed
	}
	if _, exists := s.configs[c.Address]; !exists {
		return subchain.ErrConfigNotFound
	}
	s.configs[c.Address] = *c
	return nil
}

func (s *Store) DeleteConfig(_ context.Context, addr address.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subchain.ErrStoreClosed
	}
	if _, exists := s.configs[addr]; !exists {
		return subchain.ErrConfigNotFound
	}
	delete(s.configs, addr)
	return nil
}

// ──────────────────────────────────────────────────
// Subscriptions
// ──────────────────────────────────────────────────

func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subchain.ErrStoreClosed
	}
	if _, exists := s.subscriptions[sub.Address]; exists {
		return subchain.ErrSubscriptionExists
	}
	s.subscriptions[sub.Address] = *sub
	return nil
}

func (s *Store) GetSubscription(_ context.Context, addr address.Address) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, subchain.ErrStoreClosed
	}
	sub, ok := s.subscriptions[addr]
	if !ok {
		return nil, subchain.ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subchain.ErrStoreClosed
	}
	if _, exists := s.subscriptions[sub.Address]; !exists {
		return subchain.ErrSubscriptionNotFound
	}
	s.subscriptions[sub.Address] = *sub
	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, addr address.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subchain.ErrStoreClosed
	}
	if _, exists := s.subscriptions[addr]; !exists {
		return subchain.ErrSubscriptionNotFound
	}
	delete(s.subscriptions, addr)
	return nil
}

func (s *Store) CountActive(_ context.Context, now int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, subchain.ErrStoreClosed
	}
	var n int64
	for _, sub := range s.subscriptions {
		if sub.StateAt(now) == subscription.StateActive {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored subscriptions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscriptions)
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return subchain.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
