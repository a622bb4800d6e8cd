package bank_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/codec"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/types"
)

func TestBatchAtomic(t *testing.T) {
	ctx := context.Background()
	m := bank.NewMemory()
	alice := bank.ForID(id.NewAccountID())
	bob := bank.ForID(id.NewAccountID())
	escrow := bank.Account("escrow")

	require.NoError(t, m.Fund(alice, 1000))

	err := m.Batch(ctx,
		bank.Transfer{From: alice, To: bob, Amount: 600},
		bank.Transfer{From: alice, To: escrow, Amount: 500},
	)
	require.ErrorIs(t, err, bank.ErrInsufficientFunds)
	assert.Equal(t, types.Lamports(1000), m.Balance(alice), "failed batch must not move value")
	assert.Equal(t, types.Lamports(0), m.Balance(bob))

	require.NoError(t, m.Batch(ctx,
		bank.Transfer{From: alice, To: bob, Amount: 600},
		bank.Transfer{From: alice, To: escrow, Amount: 400},
	))
	assert.Equal(t, types.Lamports(0), m.Balance(alice))
	assert.Equal(t, types.Lamports(600), m.Balance(bob))
	assert.Equal(t, types.Lamports(400), m.Balance(escrow))
}

func TestTransferValidation(t *testing.T) {
	ctx := context.Background()
	m := bank.NewMemory()

	err := m.Transfer(ctx, bank.Transfer{From: "", To: "x", Amount: 1})
	assert.ErrorIs(t, err, bank.ErrInvalidAccount)

	assert.NoError(t, m.Transfer(ctx, bank.Transfer{From: "a", To: "b", Amount: 0}), "zero transfer is a no-op")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.Transfer(cancelled, bank.Transfer{From: "a", To: "b", Amount: 1}), context.Canceled)
}

func TestReverse(t *testing.T) {
	ctx := context.Background()
	m := bank.NewMemory()
	require.NoError(t, m.Fund("a", 100))

	batch := []bank.Transfer{
		{From: "a", To: "b", Amount: 30},
		{From: "a", To: "c", Amount: 20},
	}
	require.NoError(t, m.Batch(ctx, batch...))

	total, err := bank.Total(batch)
	require.NoError(t, err)
	assert.Equal(t, types.Lamports(50), total)

	require.NoError(t, m.Batch(ctx, bank.Reverse(batch)...))
	assert.Equal(t, types.Lamports(100), m.Balance("a"))
	assert.Equal(t, types.Lamports(0), m.Balance("b"))
	assert.Equal(t, types.Lamports(0), m.Balance("c"))
}

func TestConcurrentTransfers(t *testing.T) {
	ctx := context.Background()
	m := bank.NewMemory()
	require.NoError(t, m.Fund("payer", 100))

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Transfer(ctx, bank.Transfer{From: "payer", To: "payee", Amount: 1})
		}()
	}
	wg.Wait()

	assert.Equal(t, types.Lamports(0), m.Balance("payer"))
	assert.Equal(t, types.Lamports(100), m.Balance("payee"))
}

func TestRent(t *testing.T) {
	assert.Equal(t, types.Lamports((128+58)*3480*2), bank.DefaultRent.MinimumBalance(codec.SubscriptionSpace))
	assert.Equal(t, types.Lamports(1_343_280), bank.DefaultRent.MinimumBalance(codec.ConfigSpace))
}
