package redisbank_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/bank/redisbank"
	"github.com/xraph/subchain/codec"
	"github.com/xraph/subchain/id"
	redisstore "github.com/xraph/subchain/store/redis"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

func setup(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func balanceOf(t *testing.T, b *redisbank.Bank, acct bank.Account) types.Lamports {
	t.Helper()
	v, err := b.Balance(context.Background(), acct)
	require.NoError(t, err)
	return v
}

func TestBatchAtomic(t *testing.T) {
	ctx := context.Background()
	client, _ := setup(t)
	b := redisbank.New(client, "test")

	alice := bank.ForID(id.NewAccountID())
	bob := bank.ForID(id.NewAccountID())
	escrow := bank.Account("escrow")
	require.NoError(t, b.Fund(ctx, alice, 1000))

	err := b.Batch(ctx,
		bank.Transfer{From: alice, To: bob, Amount: 600},
		bank.Transfer{From: alice, To: escrow, Amount: 500},
	)
	require.ErrorIs(t, err, bank.ErrInsufficientFunds)
	assert.Equal(t, types.Lamports(1000), balanceOf(t, b, alice))
	assert.Equal(t, types.Lamports(0), balanceOf(t, b, bob))

	require.NoError(t, b.Batch(ctx,
		bank.Transfer{From: alice, To: bob, Amount: 600},
		bank.Transfer{From: alice, To: escrow, Amount: 400},
	))
	assert.Equal(t, types.Lamports(0), balanceOf(t, b, alice))
	assert.Equal(t, types.Lamports(600), balanceOf(t, b, bob))
	assert.Equal(t, types.Lamports(400), balanceOf(t, b, escrow))
}

func TestBalancesPersistAcrossInstances(t *testing.T) {
	ctx := context.Background()
	client, mr := setup(t)

	acct := bank.Account("acct")
	require.NoError(t, redisbank.New(client, "test").Fund(ctx, acct, 42))

	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer other.Close()
	assert.Equal(t, types.Lamports(42), balanceOf(t, redisbank.New(other, "test"), acct))
	assert.Equal(t, types.Lamports(0), balanceOf(t, redisbank.New(other, "elsewhere"), acct))
	assert.True(t, mr.Exists("test:balances"))
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	client, _ := setup(t)
	b := redisbank.New(client, "")

	assert.ErrorIs(t, b.Transfer(ctx, bank.Transfer{From: "", To: "x", Amount: 1}), bank.ErrInvalidAccount)
	assert.ErrorIs(t, b.Fund(ctx, "", 1), bank.ErrInvalidAccount)
	assert.NoError(t, b.Transfer(ctx, bank.Transfer{From: "a", To: "b", Amount: 0}))
	assert.NoError(t, b.Batch(ctx))
}

func TestConcurrentBatches(t *testing.T) {
	ctx := context.Background()
	client, _ := setup(t)
	b := redisbank.New(client, "test")

	require.NoError(t, b.Fund(ctx, "payer", 100))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Transfer(ctx, bank.Transfer{From: "payer", To: "payee", Amount: 10})
		}()
	}
	wg.Wait()

	payer := balanceOf(t, b, "payer")
	payee := balanceOf(t, b, "payee")
	assert.Equal(t, types.Lamports(100), payer+payee, "value must be conserved")
}

// A restarted process sees the deposits held at record addresses, so the
// owner can still cancel and get the deposit back.
func TestCancelAfterRestart(t *testing.T) {
	ctx := context.Background()
	_, mr := setup(t)
	pid := id.NewProgramID()
	creatorID, alice := id.NewAccountID(), id.NewAccountID()

	open := func() *subchain.Program {
		s, err := redisstore.New(redisstore.Config{URL: "redis://" + mr.Addr(), KeyPrefix: "test"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return subchain.New(s,
			subchain.WithProgramID(pid),
			subchain.WithTransferer(redisbank.New(s.Client(), "test")),
		)
	}

	first := open()
	funder := redisbank.New(first.Store().(*redisstore.Store).Client(), "test")
	require.NoError(t, funder.Fund(ctx, bank.ForID(creatorID), types.LamportsPerNative))
	require.NoError(t, funder.Fund(ctx, bank.ForID(alice), types.LamportsPerNative))

	_, err := first.CreateCreatorProfile(ctx, creatorID, 100, 250, 900)
	require.NoError(t, err)
	_, err = first.Subscribe(ctx, alice, creatorID, tier.Month)
	require.NoError(t, err)

	second := open()
	require.NoError(t, second.CancelSubscription(ctx, alice))

	_, err = second.Subscription(ctx, alice)
	require.ErrorIs(t, err, subchain.ErrSubscriptionNotFound)

	deposit := bank.DefaultRent.MinimumBalance(codec.SubscriptionSpace)
	configDeposit := bank.DefaultRent.MinimumBalance(codec.ConfigSpace)
	assert.Equal(t, types.LamportsPerNative-100, balanceOf(t, funder, bank.ForID(alice)))
	assert.Equal(t, types.LamportsPerNative+100-configDeposit, balanceOf(t, funder, bank.ForID(creatorID)))
	assert.NotZero(t, deposit)
}
