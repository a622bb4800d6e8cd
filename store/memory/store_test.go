package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/store/memory"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
)

func newSubscription(t *testing.T) *subscription.Subscription {
	t.Helper()
	who := id.NewAccountID()
	addr, bump, err := address.NewSeedResolver(id.NewProgramID()).Resolve(address.SubscriptionSeed, who)
	require.NoError(t, err)
	return &subscription.Subscription{Address: addr, Subscriber: who, Tier: tier.Month, EndTimestamp: 100, Bump: bump}
}

func TestConfigCRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	addr, bump, err := address.NewSeedResolver(id.NewProgramID()).Resolve(address.ConfigSeed, id.Nil)
	require.NoError(t, err)

	cfg := &creator.Config{Address: addr, Creator: id.NewAccountID(), MonthlyPrice: 1, QuartalPrice: 2, AnnualPrice: 3, Bump: bump}

	_, err = s.GetConfig(ctx, addr)
	assert.ErrorIs(t, err, subchain.ErrConfigNotFound)

	require.NoError(t, s.CreateConfig(ctx, cfg))
	assert.ErrorIs(t, s.CreateConfig(ctx, cfg), subchain.ErrConfigAlreadyInitialized)

	cfg.MonthlyPrice = 99 // must not leak into the store
	got, err := s.GetConfig(ctx, addr)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.MonthlyPrice)

	got.AnnualPrice = 7
	require.NoError(t, s.UpdateConfig(ctx, got))
	again, err := s.GetConfig(ctx, addr)
	require.NoError(t, err)
	assert.EqualValues(t, 7, again.AnnualPrice)

	require.NoError(t, s.DeleteConfig(ctx, addr))
	assert.ErrorIs(t, s.DeleteConfig(ctx, addr), subchain.ErrConfigNotFound)
}

func TestSubscriptionCRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	sub := newSubscription(t)

	assert.ErrorIs(t, s.UpdateSubscription(ctx, sub), subchain.ErrSubscriptionNotFound)
	require.NoError(t, s.CreateSubscription(ctx, sub))
	assert.ErrorIs(t, s.CreateSubscription(ctx, sub), subchain.ErrSubscriptionExists)

	sub.PausedAt = 50
	require.NoError(t, s.UpdateSubscription(ctx, sub))
	got, err := s.GetSubscription(ctx, sub.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.PausedAt)

	require.NoError(t, s.DeleteSubscription(ctx, sub.Address))
	assert.ErrorIs(t, s.DeleteSubscription(ctx, sub.Address), subchain.ErrSubscriptionNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestCreateIfAbsentUnderContention(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	sub := newSubscription(t)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := *sub
			if s.CreateSubscription(ctx, &c) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(ctx), subchain.ErrStoreClosed)
	_, err := s.GetSubscription(ctx, address.Zero)
	assert.ErrorIs(t, err, subchain.ErrStoreClosed)
}

func TestCountActive(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	active := newSubscription(t)
	paused := newSubscription(t)
	paused.PausedAt = 50
	expired := newSubscription(t)
	expired.EndTimestamp = 10
	for _, sub := range []*subscription.Subscription{active, paused, expired} {
		require.NoError(t, s.CreateSubscription(ctx, sub))
	}

	n, err := s.CountActive(ctx, 60)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.CountActive(ctx, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "end timestamp is exclusive")
}
