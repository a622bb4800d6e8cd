// Package observability provides a metrics extension for subchain that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/plugin"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnInit                  = (*MetricsExtension)(nil)
	_ plugin.OnCreatorProfileCreated = (*MetricsExtension)(nil)
	_ plugin.OnPricesUpdated         = (*MetricsExtension)(nil)
	_ plugin.OnSubscribed            = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionPaused    = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionResumed   = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionExtended  = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCanceled  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentTransferred    = (*MetricsExtension)(nil)
	_ plugin.OnOperationFailed       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records program-wide lifecycle metrics.
// Register it as a subchain plugin to track subscription activity.
type MetricsExtension struct {
	// Creator metrics
	CreatorProfiles Counter
	PriceUpdates    Counter

	// Subscription metrics
	Subscribed           Counter
	SubscribedByTier     [3]Counter
	SubscriptionPaused   Counter
	SubscriptionResumed  Counter
	SubscriptionExtended Counter
	SubscriptionCanceled Counter
	PausedSeconds        Histogram

	// Payment metrics
	TransferBatches     Counter
	LamportsTransferred Counter
	LamportsRefunded    Counter
	PaymentAmount       Histogram

	// Error metrics
	ValidationFailures    Counter
	AuthorizationFailures Counter
	PreconditionFailures  Counter
	NotFoundFailures      Counter
	InternalFailures      Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	m := &MetricsExtension{
		// Creator metrics
		CreatorProfiles: factory.Counter("subchain.creator.profiles"),
		PriceUpdates:    factory.Counter("subchain.creator.price_updates"),

		// Subscription metrics
		Subscribed:           factory.Counter("subchain.subscription.created"),
		SubscriptionPaused:   factory.Counter("subchain.subscription.paused"),
		SubscriptionResumed:  factory.Counter("subchain.subscription.resumed"),
		SubscriptionExtended: factory.Counter("subchain.subscription.extended"),
		SubscriptionCanceled: factory.Counter("subchain.subscription.canceled"),
		PausedSeconds:        factory.Histogram("subchain.subscription.paused_seconds"),

		// Payment metrics
		TransferBatches:     factory.Counter("subchain.payment.batches"),
		LamportsTransferred: factory.Counter("subchain.payment.lamports"),
		LamportsRefunded:    factory.Counter("subchain.payment.refunded_lamports"),
		PaymentAmount:       factory.Histogram("subchain.payment.amount_lamports"),

		// Error metrics
		ValidationFailures:    factory.Counter("subchain.errors.validation"),
		AuthorizationFailures: factory.Counter("subchain.errors.authorization"),
		PreconditionFailures:  factory.Counter("subchain.errors.precondition"),
		NotFoundFailures:      factory.Counter("subchain.errors.not_found"),
		InternalFailures:      factory.Counter("subchain.errors.internal"),
	}

	for _, t := range tier.All() {
		m.SubscribedByTier[t] = factory.Counter("subchain.subscription.created." + t.String())
	}

	return m
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Creator hooks
// ──────────────────────────────────────────────────

// OnCreatorProfileCreated implements plugin.OnCreatorProfileCreated.
func (m *MetricsExtension) OnCreatorProfileCreated(_ context.Context, _ *creator.Config) error {
	m.CreatorProfiles.Inc()
	return nil
}

// OnPricesUpdated implements plugin.OnPricesUpdated.
func (m *MetricsExtension) OnPricesUpdated(_ context.Context, _, _ *creator.Config) error {
	m.PriceUpdates.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscribed implements plugin.OnSubscribed.
func (m *MetricsExtension) OnSubscribed(_ context.Context, sub *subscription.Subscription, price types.Lamports) error {
	m.Subscribed.Inc()
	if sub.Tier.Valid() {
		m.SubscribedByTier[sub.Tier].Inc()
	}
	m.PaymentAmount.Observe(float64(price))
	return nil
}

// OnSubscriptionPaused implements plugin.OnSubscriptionPaused.
func (m *MetricsExtension) OnSubscriptionPaused(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionPaused.Inc()
	return nil
}

// OnSubscriptionResumed implements plugin.OnSubscriptionResumed.
func (m *MetricsExtension) OnSubscriptionResumed(_ context.Context, _ *subscription.Subscription, pausedFor int64) error {
	m.SubscriptionResumed.Inc()
	m.PausedSeconds.Observe(float64(pausedFor))
	return nil
}

// OnSubscriptionExtended implements plugin.OnSubscriptionExtended.
func (m *MetricsExtension) OnSubscriptionExtended(_ context.Context, _ *subscription.Subscription, _ tier.Tier, price types.Lamports) error {
	m.SubscriptionExtended.Inc()
	m.PaymentAmount.Observe(float64(price))
	return nil
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (m *MetricsExtension) OnSubscriptionCanceled(_ context.Context, _ *subscription.Subscription, refund types.Lamports) error {
	m.SubscriptionCanceled.Inc()
	m.LamportsRefunded.Add(float64(refund))
	return nil
}

// ──────────────────────────────────────────────────
// Payment and failure hooks
// ──────────────────────────────────────────────────

// OnPaymentTransferred implements plugin.OnPaymentTransferred.
func (m *MetricsExtension) OnPaymentTransferred(_ context.Context, transfers []bank.Transfer) error {
	m.TransferBatches.Inc()
	var total float64
	for _, t := range transfers {
		total += float64(t.Amount)
	}
	m.LamportsTransferred.Add(total)
	return nil
}

// OnOperationFailed implements plugin.OnOperationFailed.
func (m *MetricsExtension) OnOperationFailed(_ context.Context, _ string, _ id.ID, err error) error {
	switch {
	case subchain.IsValidation(err):
		m.ValidationFailures.Inc()
	case subchain.IsAuthorization(err):
		m.AuthorizationFailures.Inc()
	case subchain.IsPrecondition(err):
		m.PreconditionFailures.Inc()
	case subchain.IsNotFound(err):
		m.NotFoundFailures.Inc()
	default:
		m.InternalFailures.Inc()
	}
	return nil
}
