package audithook_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subchain"
	audithook "github.com/xraph/subchain/audit_hook"
	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
)

type memRecorder struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (r *memRecorder) Record(_ context.Context, e *audithook.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

func TestRecordsLifecycle(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)
	ctx := context.Background()
	alice := id.NewAccountID()
	sub := &subscription.Subscription{Subscriber: alice, Tier: tier.Month, EndTimestamp: 42}

	require.NoError(t, ext.OnSubscribed(ctx, sub, 100))
	require.NoError(t, ext.OnSubscriptionPaused(ctx, sub))
	require.NoError(t, ext.OnSubscriptionResumed(ctx, sub, 10))
	require.NoError(t, ext.OnSubscriptionExtended(ctx, sub, tier.Annual, 900))
	require.NoError(t, ext.OnSubscriptionCanceled(ctx, sub, 5))

	assert.Equal(t, []string{
		audithook.ActionSubscriptionCreated,
		audithook.ActionSubscriptionPaused,
		audithook.ActionSubscriptionResumed,
		audithook.ActionSubscriptionExtended,
		audithook.ActionSubscriptionCanceled,
	}, rec.actions())

	first := rec.events[0]
	assert.Equal(t, alice.String(), first.ActorID)
	assert.Equal(t, sub.Address.String(), first.ResourceID)
	assert.Equal(t, "month", first.Metadata["tier"])
	assert.Equal(t, uint64(100), first.Metadata["price"])
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, rec.events[1].ID)
}

func TestCreatorEvents(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)
	ctx := context.Background()

	before := &creator.Config{Creator: id.NewAccountID(), MonthlyPrice: 1, QuartalPrice: 2, AnnualPrice: 3}
	after := *before
	after.MonthlyPrice = 5

	require.NoError(t, ext.OnCreatorProfileCreated(ctx, before))
	require.NoError(t, ext.OnPricesUpdated(ctx, before, &after))

	require.Len(t, rec.events, 2)
	assert.Equal(t, audithook.CategoryCreator, rec.events[1].Category)
	assert.Equal(t, after.Prices(), rec.events[1].Metadata["after"])
}

func TestOperationFailedSeverity(t *testing.T) {
	tests := []struct {
		err      error
		severity string
		category string
	}{
		{subchain.ErrUnauthorized, audithook.SeverityWarning, audithook.CategoryAccess},
		{subchain.ErrExpiredSubscription, audithook.SeverityInfo, audithook.CategorySubscription},
		{bank.ErrInsufficientFunds, audithook.SeverityError, audithook.CategorySubscription},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := &memRecorder{}
			ext := audithook.New(rec)
			caller := id.NewAccountID()

			require.NoError(t, ext.OnOperationFailed(context.Background(), "pause_subscription", caller, tt.err))
			require.Len(t, rec.events, 1)

			e := rec.events[0]
			assert.Equal(t, audithook.OutcomeFailure, e.Outcome)
			assert.Equal(t, tt.severity, e.Severity)
			assert.Equal(t, tt.category, e.Category)
			assert.Equal(t, tt.err.Error(), e.Reason)
			assert.Equal(t, caller.String(), e.ActorID)
		})
	}
}

func TestActionFilters(t *testing.T) {
	ctx := context.Background()
	sub := &subscription.Subscription{Subscriber: id.NewAccountID()}

	t.Run("enabled", func(t *testing.T) {
		rec := &memRecorder{}
		ext := audithook.New(rec, audithook.WithEnabledActions(audithook.ActionSubscriptionPaused))
		require.NoError(t, ext.OnSubscribed(ctx, sub, 1))
		require.NoError(t, ext.OnSubscriptionPaused(ctx, sub))
		assert.Equal(t, []string{audithook.ActionSubscriptionPaused}, rec.actions())
	})

	t.Run("disabled", func(t *testing.T) {
		rec := &memRecorder{}
		ext := audithook.New(rec, audithook.WithDisabledActions(audithook.ActionPaymentTransferred))
		require.NoError(t, ext.OnPaymentTransferred(ctx, []bank.Transfer{{From: "a", To: "b", Amount: 1}}))
		require.NoError(t, ext.OnSubscriptionCanceled(ctx, sub, 1))
		assert.Equal(t, []string{audithook.ActionSubscriptionCanceled}, rec.actions())
	})
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	sub := &subscription.Subscription{Subscriber: id.NewAccountID()}
	assert.NoError(t, ext.OnSubscriptionPaused(context.Background(), sub))
}
