package bank

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/subchain/types"
)

// Memory is a Transferer over in-process balances. It is safe for
// concurrent use.
type Memory struct {
	mu       sync.Mutex
	balances map[Account]types.Lamports
}

var _ Transferer = (*Memory)(nil)

// NewMemory returns an empty ledger of balances.
func NewMemory() *Memory {
	return &Memory{balances: make(map[Account]types.Lamports)}
}

// Fund credits amount to acct out of thin air.
func (m *Memory) Fund(acct Account, amount types.Lamports) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.balances[acct].Add(amount)
	if err != nil {
		return fmt.Errorf("bank: fund %s: %w", acct, err)
	}
	m.balances[acct] = next
	return nil
}

// Balance returns the current balance of acct.
func (m *Memory) Balance(acct Account) types.Lamports {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[acct]
}

// Transfer implements Transferer.
func (m *Memory) Transfer(ctx context.Context, t Transfer) error {
	return m.Batch(ctx, t)
}

// Batch implements Transferer. Balances are staged against the current
// ones and committed only when every transfer succeeds.
func (m *Memory) Batch(ctx context.Context, transfers ...Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	staged, err := Stage(transfers, func(a Account) types.Lamports { return m.balances[a] })
	if err != nil {
		return err
	}
	for a, v := range staged {
		m.balances[a] = v
	}
	return nil
}
