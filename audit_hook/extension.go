// Package audithook bridges subchain lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/plugin"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnCreatorProfileCreated = (*Extension)(nil)
	_ plugin.OnPricesUpdated         = (*Extension)(nil)
	_ plugin.OnSubscribed            = (*Extension)(nil)
	_ plugin.OnSubscriptionPaused    = (*Extension)(nil)
	_ plugin.OnSubscriptionResumed   = (*Extension)(nil)
	_ plugin.OnSubscriptionExtended  = (*Extension)(nil)
	_ plugin.OnSubscriptionCanceled  = (*Extension)(nil)
	_ plugin.OnPaymentTransferred    = (*Extension)(nil)
	_ plugin.OnOperationFailed       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	ActorID    string         `json:"actor_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges subchain lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Creator hooks
// ──────────────────────────────────────────────────

// OnCreatorProfileCreated implements plugin.OnCreatorProfileCreated.
func (e *Extension) OnCreatorProfileCreated(ctx context.Context, cfg *creator.Config) error {
	return e.record(ctx, ActionCreatorProfileCreated, SeverityInfo, OutcomeSuccess,
		ResourceCreatorConfig, cfg.Address.String(), cfg.Creator, CategoryCreator, nil,
		"monthly_price", cfg.MonthlyPrice.Uint64(),
		"quartal_price", cfg.QuartalPrice.Uint64(),
		"annual_price", cfg.AnnualPrice.Uint64(),
		"deposit", cfg.Deposit.Uint64(),
	)
}

// OnPricesUpdated implements plugin.OnPricesUpdated.
func (e *Extension) OnPricesUpdated(ctx context.Context, before, after *creator.Config) error {
	return e.record(ctx, ActionCreatorPricesUpdated, SeverityInfo, OutcomeSuccess,
		ResourceCreatorConfig, after.Address.String(), after.Creator, CategoryCreator, nil,
		"before", before.Prices(),
		"after", after.Prices(),
	)
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscribed implements plugin.OnSubscribed.
func (e *Extension) OnSubscribed(ctx context.Context, sub *subscription.Subscription, price types.Lamports) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.Address.String(), sub.Subscriber, CategorySubscription, nil,
		"tier", sub.Tier.String(),
		"price", price.Uint64(),
		"end_timestamp", sub.EndTimestamp,
	)
}

// OnSubscriptionPaused implements plugin.OnSubscriptionPaused.
func (e *Extension) OnSubscriptionPaused(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionPaused, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.Address.String(), sub.Subscriber, CategorySubscription, nil,
		"paused_at", sub.PausedAt,
	)
}

// OnSubscriptionResumed implements plugin.OnSubscriptionResumed.
func (e *Extension) OnSubscriptionResumed(ctx context.Context, sub *subscription.Subscription, pausedFor int64) error {
	return e.record(ctx, ActionSubscriptionResumed, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.Address.String(), sub.Subscriber, CategorySubscription, nil,
		"paused_for", pausedFor,
		"end_timestamp", sub.EndTimestamp,
	)
}

// OnSubscriptionExtended implements plugin.OnSubscriptionExtended.
func (e *Extension) OnSubscriptionExtended(ctx context.Context, sub *subscription.Subscription, t tier.Tier, price types.Lamports) error {
	return e.record(ctx, ActionSubscriptionExtended, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.Address.String(), sub.Subscriber, CategorySubscription, nil,
		"tier", t.String(),
		"price", price.Uint64(),
		"end_timestamp", sub.EndTimestamp,
	)
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (e *Extension) OnSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription, refund types.Lamports) error {
	return e.record(ctx, ActionSubscriptionCanceled, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.Address.String(), sub.Subscriber, CategorySubscription, nil,
		"refund", refund.Uint64(),
	)
}

// ──────────────────────────────────────────────────
// Payment and failure hooks
// ──────────────────────────────────────────────────

// OnPaymentTransferred implements plugin.OnPaymentTransferred.
func (e *Extension) OnPaymentTransferred(ctx context.Context, transfers []bank.Transfer) error {
	total, err := bank.Total(transfers)
	if err != nil {
		return e.record(ctx, ActionPaymentTransferred, SeverityWarning, OutcomeSuccess,
			ResourcePayment, "", id.Nil, CategoryPayment, err,
			"transfers", len(transfers),
		)
	}
	return e.record(ctx, ActionPaymentTransferred, SeverityInfo, OutcomeSuccess,
		ResourcePayment, "", id.Nil, CategoryPayment, nil,
		"transfers", len(transfers),
		"total", total.Uint64(),
	)
}

// OnOperationFailed implements plugin.OnOperationFailed. Authorization
// failures are recorded as warnings in the access category.
func (e *Extension) OnOperationFailed(ctx context.Context, op string, caller id.ID, opErr error) error {
	severity, category := SeverityError, CategorySubscription
	switch {
	case subchain.IsAuthorization(opErr):
		severity, category = SeverityWarning, CategoryAccess
	case subchain.IsValidation(opErr), subchain.IsPrecondition(opErr), subchain.IsNotFound(opErr):
		severity = SeverityInfo
	}

	return e.record(ctx, ActionOperationFailed, severity, OutcomeFailure,
		ResourceOperation, op, caller, category, opErr,
		"operation", op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID string,
	actor id.ID,
	category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewEventID().String(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}
	if !actor.IsNil() {
		evt.ActorID = actor.String()
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
