package subchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/codec"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// ──────────────────────────────────────────────────
// Subscription Lifecycle
// ──────────────────────────────────────────────────

// Subscribe opens a subscription for caller. payee must be the configured
// creator. The tier price goes to the creator and the storage deposit to
// the new record, in one batch.
func (p *Program) Subscribe(ctx context.Context, caller, payee id.AccountID, t tier.Tier) (*subscription.Subscription, error) {
	const op = "subscribe"

	if err := requireCaller(caller); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}
	if !t.Valid() {
		return nil, p.fail(ctx, op, caller, tierError(t))
	}

	cfg, err := p.loadConfig(ctx)
	if err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}
	if !payee.Equal(cfg.Creator) {
		return nil, p.fail(ctx, op, caller, ErrInvalidCreator)
	}

	addr, bump, err := p.resolver.Resolve(address.SubscriptionSeed, caller)
	if err != nil {
		return nil, p.fail(ctx, op, caller, fmt.Errorf("subchain: resolve subscription: %w", err))
	}

	switch _, err := p.store.GetSubscription(ctx, addr); {
	case err == nil:
		return nil, p.fail(ctx, op, caller, ErrSubscriptionExists)
	case !errors.Is(err, ErrSubscriptionNotFound):
		return nil, p.fail(ctx, op, caller, err)
	}

	now := p.clock.Now()
	price := cfg.PriceOf(t)
	sub := &subscription.Subscription{
		Entity:       types.NewEntity(),
		Address:      addr,
		Subscriber:   caller,
		Tier:         t,
		EndTimestamp: now + t.Duration(),
		PausedAt:     0,
		Bump:         bump,
		Deposit:      p.rent.MinimumBalance(codec.SubscriptionSpace),
	}

	if err := p.store.CreateSubscription(ctx, sub); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}

	payer := bank.ForID(caller)
	payments := []bank.Transfer{
		{From: payer, To: bank.ForID(cfg.Creator), Amount: price},
		{From: payer, To: bank.ForAddress(addr), Amount: sub.Deposit},
	}
	if err := p.transfer(ctx, payments...); err != nil {
		err = p.rollback(ctx, op, err, func(ctx context.Context) error {
			return p.store.DeleteSubscription(ctx, addr)
		})
		return nil, p.fail(ctx, op, caller, err)
	}
	p.paid(ctx, payments...)

	p.logger.Info("subscribed",
		"subscriber", caller.String(),
		"tier", t.String(),
		"price", price.Uint64(),
		"end_timestamp", sub.EndTimestamp,
	)

	p.plugins.EmitSubscribed(ctx, sub, price)
	return sub, nil
}

// PauseSubscription freezes caller's subscription at the current time.
func (p *Program) PauseSubscription(ctx context.Context, caller id.AccountID) (*subscription.Subscription, error) {
	const op = "pause_subscription"

	sub, err := p.ownedSubscription(ctx, caller)
	if err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}

	// a paused record reports already-paused ahead of expiry
	now := p.clock.Now()
	if err := admit(sub, now, subscription.OpPause); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}

	sub.PausedAt = now
	sub.Touch()
	if err := p.store.UpdateSubscription(ctx, sub); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}

	p.logger.Info("subscription paused",
		"subscriber", caller.String(),
		"paused_at", now,
	)

	p.plugins.EmitSubscriptionPaused(ctx, sub)
	return sub, nil
}

// ResumeSubscription unfreezes caller's subscription, pushing its end back
// by the time spent paused.
func (p *Program) ResumeSubscription(ctx context.Context, caller id.AccountID) (*subscription.Subscription, error) {
	const op = "resume_subscription"

	sub, err := p.ownedSubscription(ctx, caller)
	if err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}
	now := p.clock.Now()
	if err := admit(sub, now, subscription.OpResume); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}

	pausedFor := now - sub.PausedAt
	if pausedFor < 0 {
		pausedFor = 0
	}

	sub.EndTimestamp += pausedFor
	sub.PausedAt = 0
	sub.Touch()
	if err := p.store.UpdateSubscription(ctx, sub); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}

	p.logger.Info("subscription resumed",
		"subscriber", caller.String(),
		"paused_for", pausedFor,
		"end_timestamp", sub.EndTimestamp,
	)

	p.plugins.EmitSubscriptionResumed(ctx, sub, pausedFor)
	return sub, nil
}

// ExtendSubscription buys another period of t for a live subscription. The
// period is appended to the current end, and the stored tier becomes t.
func (p *Program) ExtendSubscription(ctx context.Context, caller, payee id.AccountID, t tier.Tier) (*subscription.Subscription, error) {
	const op = "extend_subscription"

	if !t.Valid() {
		return nil, p.fail(ctx, op, caller, tierError(t))
	}

	cfg, err := p.loadConfig(ctx)
	if err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}
	if !payee.Equal(cfg.Creator) {
		return nil, p.fail(ctx, op, caller, ErrInvalidCreator)
	}

	sub, err := p.ownedSubscription(ctx, caller)
	if err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}
	now := p.clock.Now()
	if err := admit(sub, now, subscription.OpExtend); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}
	// the table admits paused records; a paused record past its end is
	// still expired for extend
	if sub.IsExpired(now) {
		return nil, p.fail(ctx, op, caller, ErrExpiredSubscription)
	}

	price := cfg.PriceOf(t)
	payment := bank.Transfer{From: bank.ForID(caller), To: bank.ForID(cfg.Creator), Amount: price}
	if err := p.transfer(ctx, payment); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}

	sub.Tier = t
	sub.EndTimestamp += t.Duration()
	sub.Touch()
	if err := p.store.UpdateSubscription(ctx, sub); err != nil {
		err = p.rollback(ctx, op, err, func(ctx context.Context) error {
			return p.bank.Batch(ctx, bank.Reverse([]bank.Transfer{payment})...)
		})
		return nil, p.fail(ctx, op, caller, err)
	}
	p.paid(ctx, payment)

	p.logger.Info("subscription extended",
		"subscriber", caller.String(),
		"tier", t.String(),
		"price", price.Uint64(),
		"end_timestamp", sub.EndTimestamp,
	)

	p.plugins.EmitSubscriptionExtended(ctx, sub, t, price)
	return sub, nil
}

// CancelSubscription closes caller's subscription in any state and returns
// its storage deposit to caller. Paid periods are not refunded.
func (p *Program) CancelSubscription(ctx context.Context, caller id.AccountID) error {
	const op = "cancel_subscription"

	sub, err := p.ownedSubscription(ctx, caller)
	if err != nil {
		return p.fail(ctx, op, caller, err)
	}
	if err := admit(sub, p.clock.Now(), subscription.OpCancel); err != nil {
		return p.fail(ctx, op, caller, err)
	}

	if err := p.store.DeleteSubscription(ctx, sub.Address); err != nil {
		return p.fail(ctx, op, caller, err)
	}

	refund := bank.Transfer{From: bank.ForAddress(sub.Address), To: bank.ForID(caller), Amount: sub.Deposit}
	if err := p.transfer(ctx, refund); err != nil {
		err = p.rollback(ctx, op, err, func(ctx context.Context) error {
			return p.store.CreateSubscription(ctx, sub)
		})
		return p.fail(ctx, op, caller, err)
	}
	p.paid(ctx, refund)

	p.logger.Info("subscription canceled",
		"subscriber", caller.String(),
		"refund", sub.Deposit.Uint64(),
	)

	p.plugins.EmitSubscriptionCanceled(ctx, sub, sub.Deposit)
	return nil
}

// Subscription returns subscriber's subscription record.
func (p *Program) Subscription(ctx context.Context, subscriber id.AccountID) (*subscription.Subscription, error) {
	if err := requireCaller(subscriber); err != nil {
		return nil, err
	}
	return p.loadSubscription(ctx, subscriber)
}

// ActiveSubscriptions counts subscriptions that are unpaused and unexpired
// now.
func (p *Program) ActiveSubscriptions(ctx context.Context) (int64, error) {
	n, err := p.store.CountActive(ctx, p.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("subchain: count active: %w", err)
	}
	return n, nil
}

// Price returns the current price of one period of t.
func (p *Program) Price(ctx context.Context, t tier.Tier) (types.Lamports, error) {
	if !t.Valid() {
		return 0, tierError(t)
	}
	cfg, err := p.loadConfig(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.PriceOf(t), nil
}

// admit checks op against the transition table for sub's state at now and
// names the failed precondition when the table refuses it.
func admit(sub *subscription.Subscription, now int64, op subscription.Op) error {
	state := sub.StateAt(now)
	if _, ok := subscription.Next(state, op); ok {
		return nil
	}

	switch {
	case op == subscription.OpPause && state == subscription.StatePaused:
		return ErrAlreadyPausedSubscription
	case op == subscription.OpResume:
		return ErrNotPausedSubscription
	case state == subscription.StateExpired:
		return ErrExpiredSubscription
	default:
		return fmt.Errorf("%w: %s not permitted while %s", ErrInvalidInput, op, state)
	}
}

// ownedSubscription loads the record derived from caller and re-checks its
// stored subscriber.
func (p *Program) ownedSubscription(ctx context.Context, caller id.AccountID) (*subscription.Subscription, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	sub, err := p.loadSubscription(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !sub.Subscriber.Equal(caller) {
		return nil, ErrUnauthorized
	}
	return sub, nil
}

func (p *Program) loadSubscription(ctx context.Context, subscriber id.AccountID) (*subscription.Subscription, error) {
	addr, _, err := p.resolver.Resolve(address.SubscriptionSeed, subscriber)
	if err != nil {
		return nil, fmt.Errorf("subchain: resolve subscription: %w", err)
	}

	sub, err := p.store.GetSubscription(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := p.resolver.Verify(address.SubscriptionSeed, subscriber, sub.Bump, sub.Address); err != nil {
		return nil, fmt.Errorf("subchain: subscription record: %w", err)
	}
	return sub, nil
}
