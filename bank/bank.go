// Package bank moves native value between accounts.
//
// The engine only depends on Transferer. Memory is an in-process
// implementation suitable for tests and single-node deployments; a chain or
// payment-rail adapter satisfies the same interface.
package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/types"
)

var (
	// ErrInsufficientFunds is returned when a payer cannot cover a transfer.
	ErrInsufficientFunds = errors.New("bank: insufficient funds")

	// ErrInvalidAccount is returned for an empty account key.
	ErrInvalidAccount = errors.New("bank: invalid account")
)

// Account is a balance holder key. Principals use their identity text and
// records use their hex address.
type Account string

// ForID returns the account of an identity.
func ForID(who id.ID) Account { return Account(who.String()) }

// ForAddress returns the account held by a record address.
func ForAddress(a address.Address) Account { return Account(a.String()) }

func (a Account) String() string { return string(a) }

// Transfer is one movement of value.
type Transfer struct {
	From   Account        `json:"from"`
	To     Account        `json:"to"`
	Amount types.Lamports `json:"amount"`
}

func (t Transfer) String() string {
	return fmt.Sprintf("%s -> %s: %s", t.From, t.To, t.Amount)
}

// Transferer executes transfers. Batch applies all transfers or none.
type Transferer interface {
	Transfer(ctx context.Context, t Transfer) error
	Batch(ctx context.Context, transfers ...Transfer) error
}

// Reverse returns the transfers that undo ts, in undo order.
func Reverse(ts []Transfer) []Transfer {
	out := make([]Transfer, 0, len(ts))
	for i := len(ts) - 1; i >= 0; i-- {
		out = append(out, Transfer{From: ts[i].To, To: ts[i].From, Amount: ts[i].Amount})
	}
	return out
}

// Stage applies transfers to balances read through lookup and returns the
// resulting balance of every account that changed. Zero-amount and
// self transfers are skipped. On error nothing is returned.
func Stage(transfers []Transfer, lookup func(Account) types.Lamports) (map[Account]types.Lamports, error) {
	staged := make(map[Account]types.Lamports, 2*len(transfers))
	balance := func(a Account) types.Lamports {
		if v, ok := staged[a]; ok {
			return v
		}
		return lookup(a)
	}

	for _, t := range transfers {
		if t.From == "" || t.To == "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAccount, t)
		}
		if t.Amount.IsZero() || t.From == t.To {
			continue
		}

		from, err := balance(t.From).Sub(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, t.From, balance(t.From), t.Amount)
		}
		to, err := balance(t.To).Add(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("bank: credit %s: %w", t.To, err)
		}
		staged[t.From] = from
		staged[t.To] = to
	}
	return staged, nil
}

// Accounts lists the distinct accounts ts touches, in first-seen order.
func Accounts(ts []Transfer) []Account {
	seen := make(map[Account]struct{}, 2*len(ts))
	out := make([]Account, 0, 2*len(ts))
	for _, t := range ts {
		for _, a := range [2]Account{t.From, t.To} {
			if _, ok := seen[a]; ok || a == "" {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// Total sums the amounts of ts.
func Total(ts []Transfer) (types.Lamports, error) {
	var total types.Lamports
	for _, t := range ts {
		var err error
		if total, err = total.Add(t.Amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}
