// Package redis implements store.Store on Redis. Records are kept in their
// fixed-width binary layouts, wrapped in a codec.Account envelope that
// carries the record's deposit.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/codec"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/store"
	"github.com/xraph/subchain/subscription"
)

// DefaultKeyPrefix namespaces subchain keys.
const DefaultKeyPrefix = "subchain"

// Config configures a Redis-backed store.
type Config struct {
	URL        string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	KeyPrefix  string
}

// Store is a Redis implementation of store.Store.
type Store struct {
	client *redis.Client
	prefix string
}

var _ store.Store = (*Store)(nil)

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB > 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connect: %w", err)
	}

	return NewFromClient(client, cfg.KeyPrefix), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Client returns the underlying Redis client.
func (s *Store) Client() *redis.Client { return s.client }

func (s *Store) configKey(addr address.Address) string {
	return s.prefix + ":config:" + addr.String()
}

func (s *Store) subscriptionKey(addr address.Address) string {
	return s.prefix + ":subscription:" + addr.String()
}

// ──────────────────────────────────────────────────
// Creator config
// ──────────────────────────────────────────────────

func (s *Store) CreateConfig(ctx context.Context, c *creator.Config) error {
	raw, err := encodeConfig(c)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.configKey(c.Address), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("redis: create config: %w", err)
	}
	if !ok {
		return subchain.ErrConfigAlreadyInitialized
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context, addr address.Address) (*creator.Config, error) {
	raw, err := s.client.Get(ctx, s.configKey(addr)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, subchain.ErrConfigNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis: get config: %w", err)
	}

	var acct codec.Account
	if err := acct.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	c, err := codec.DecodeConfig(addr, acct.Data)
	if err != nil {
		return nil, err
	}
	c.Deposit = acct.Lamports
	return c, nil
}

func (s *Store) UpdateConfig(ctx context.Context, c *creator.Config) error {
	raw, err := encodeConfig(c)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, s.configKey(c.Address), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("redis: update config: %w", err)
	}
	if !ok {
		return subchain.ErrConfigNotFound
	}
	return nil
}

func (s *Store) DeleteConfig(ctx context.Context, addr address.Address) error {
	n, err := s.client.Del(ctx, s.configKey(addr)).Result()
	if err != nil {
		return fmt.Errorf("redis: delete config: %w", err)
	}
	if n == 0 {
		return subchain.ErrConfigNotFound
	}
	return nil
}

// ──────────────────────────────────────────────────
// Subscriptions
// ──────────────────────────────────────────────────

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	raw, err := encodeSubscription(sub)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.subscriptionKey(sub.Address), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("redis: create subscription: %w", err)
	}
	if !ok {
		return subchain.ErrSubscriptionExists
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, addr address.Address) (*subscription.Subscription, error) {
	raw, err := s.client.Get(ctx, s.subscriptionKey(addr)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, subchain.ErrSubscriptionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis: get subscription: %w", err)
	}

	var acct codec.Account
	if err := acct.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	sub, err := codec.DecodeSubscription(addr, acct.Data)
	if err != nil {
		return nil, err
	}
	sub.Deposit = acct.Lamports
	return sub, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	raw, err := encodeSubscription(sub)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, s.subscriptionKey(sub.Address), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("redis: update subscription: %w", err)
	}
	if !ok {
		return subchain.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, addr address.Address) error {
	n, err := s.client.Del(ctx, s.subscriptionKey(addr)).Result()
	if err != nil {
		return fmt.Errorf("redis: delete subscription: %w", err)
	}
	if n == 0 {
		return subchain.ErrSubscriptionNotFound
	}
	return nil
}

// CountActive scans every subscription record. It is linear in the number
// of subscriptions.
func (s *Store) CountActive(ctx context.Context, now int64) (int64, error) {
	var n int64
	iter := s.client.Scan(ctx, 0, s.prefix+":subscription:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		addr, err := address.Parse(strings.TrimPrefix(key, s.prefix+":subscription:"))
		if err != nil {
			return 0, fmt.Errorf("redis: count active: %w", err)
		}
		sub, err := s.GetSubscription(ctx, addr)
		if errors.Is(err, subchain.ErrSubscriptionNotFound) {
			continue
		} else if err != nil {
			return 0, err
		}
		if sub.StateAt(now) == subscription.StateActive {
			n++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis: count active: %w", err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func encodeConfig(c *creator.Config) ([]byte, error) {
	data, err := codec.EncodeConfig(c)
	if err != nil {
		return nil, err
	}
	return codec.Account{Lamports: c.Deposit, Data: data}.MarshalBinary()
}

func encodeSubscription(sub *subscription.Subscription) ([]byte, error) {
	data, err := codec.EncodeSubscription(sub)
	if err != nil {
		return nil, err
	}
	return codec.Account{Lamports: sub.Deposit, Data: data}.MarshalBinary()
}
