// Package redisbank implements bank.Transferer on Redis so balances,
// including the deposits held at record addresses, survive restarts and are
// shared by every process that uses the same Redis.
//
// All balances live in one hash. A batch reads the touched fields under
// WATCH and commits them in a MULTI/EXEC, retrying when another writer got
// there first.
package redisbank

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/types"
)

// DefaultKeyPrefix namespaces the balance hash.
const DefaultKeyPrefix = "subchain"

// MaxRetries bounds optimistic-lock retries per batch.
const MaxRetries = 16

// ErrContended is returned when a batch lost the optimistic lock MaxRetries
// times in a row.
var ErrContended = errors.New("redisbank: too much contention on balances")

// Bank is a Redis-backed bank.Transferer.
type Bank struct {
	client *redis.Client
	key    string
}

var _ bank.Transferer = (*Bank)(nil)

// New returns a bank storing balances under "<prefix>:balances".
func New(client *redis.Client, prefix string) *Bank {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Bank{client: client, key: prefix + ":balances"}
}

// Fund credits amount to acct out of thin air.
func (b *Bank) Fund(ctx context.Context, acct bank.Account, amount types.Lamports) error {
	if acct == "" {
		return bank.ErrInvalidAccount
	}
	return b.update(ctx, []bank.Account{acct}, func(current map[bank.Account]types.Lamports) (map[bank.Account]types.Lamports, error) {
		next, err := current[acct].Add(amount)
		if err != nil {
			return nil, fmt.Errorf("redisbank: fund %s: %w", acct, err)
		}
		return map[bank.Account]types.Lamports{acct: next}, nil
	})
}

// Balance returns the current balance of acct.
func (b *Bank) Balance(ctx context.Context, acct bank.Account) (types.Lamports, error) {
	raw, err := b.client.HGet(ctx, b.key, string(acct)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("redisbank: balance %s: %w", acct, err)
	}
	return parse(acct, raw)
}

// Transfer implements bank.Transferer.
func (b *Bank) Transfer(ctx context.Context, t bank.Transfer) error {
	return b.Batch(ctx, t)
}

// Batch implements bank.Transferer.
func (b *Bank) Batch(ctx context.Context, transfers ...bank.Transfer) error {
	if len(transfers) == 0 {
		return ctx.Err()
	}
	return b.update(ctx, bank.Accounts(transfers), func(current map[bank.Account]types.Lamports) (map[bank.Account]types.Lamports, error) {
		return bank.Stage(transfers, func(a bank.Account) types.Lamports { return current[a] })
	})
}

// update reads accts, lets apply compute the new balances and writes them
// back atomically.
func (b *Bank) update(ctx context.Context, accts []bank.Account, apply func(map[bank.Account]types.Lamports) (map[bank.Account]types.Lamports, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(accts) == 0 {
		_, err := apply(nil)
		return err
	}

	fields := make([]string, len(accts))
	for i, a := range accts {
		fields[i] = string(a)
	}

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, b.key, fields...).Result()
		if err != nil {
			return fmt.Errorf("redisbank: read balances: %w", err)
		}

		current := make(map[bank.Account]types.Lamports, len(accts))
		for i, v := range vals {
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("redisbank: balance %s: unexpected %T", accts[i], v)
			}
			if current[accts[i]], err = parse(accts[i], s); err != nil {
				return err
			}
		}

		staged, err := apply(current)
		if err != nil {
			return err
		}
		if len(staged) == 0 {
			return nil
		}

		values := make([]interface{}, 0, 2*len(staged))
		for a, v := range staged {
			values = append(values, string(a), strconv.FormatUint(v.Uint64(), 10))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, b.key, values...)
			return nil
		})
		return err
	}

	for range MaxRetries {
		err := b.client.Watch(ctx, txf, b.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrContended
}

func parse(acct bank.Account, raw string) (types.Lamports, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redisbank: balance %s: %w", acct, err)
	}
	return types.Lamports(n), nil
}
