package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// DefaultHookTimeout bounds a single plugin hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook interfaces are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                  []OnInit
	onShutdown              []OnShutdown
	onCreatorProfileCreated []OnCreatorProfileCreated
	onPricesUpdated         []OnPricesUpdated
	onSubscribed            []OnSubscribed
	onSubscriptionPaused    []OnSubscriptionPaused
	onSubscriptionResumed   []OnSubscriptionResumed
	onSubscriptionExtended  []OnSubscriptionExtended
	onSubscriptionCanceled  []OnSubscriptionCanceled
	onPaymentTransferred    []OnPaymentTransferred
	onOperationFailed       []OnOperationFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnCreatorProfileCreated); ok {
		r.onCreatorProfileCreated = append(r.onCreatorProfileCreated, v)
		hooks = append(hooks, "OnCreatorProfileCreated")
	}
	if v, ok := p.(OnPricesUpdated); ok {
		r.onPricesUpdated = append(r.onPricesUpdated, v)
		hooks = append(hooks, "OnPricesUpdated")
	}
	if v, ok := p.(OnSubscribed); ok {
		r.onSubscribed = append(r.onSubscribed, v)
		hooks = append(hooks, "OnSubscribed")
	}
	if v, ok := p.(OnSubscriptionPaused); ok {
		r.onSubscriptionPaused = append(r.onSubscriptionPaused, v)
		hooks = append(hooks, "OnSubscriptionPaused")
	}
	if v, ok := p.(OnSubscriptionResumed); ok {
		r.onSubscriptionResumed = append(r.onSubscriptionResumed, v)
		hooks = append(hooks, "OnSubscriptionResumed")
	}
	if v, ok := p.(OnSubscriptionExtended); ok {
		r.onSubscriptionExtended = append(r.onSubscriptionExtended, v)
		hooks = append(hooks, "OnSubscriptionExtended")
	}
	if v, ok := p.(OnSubscriptionCanceled); ok {
		r.onSubscriptionCanceled = append(r.onSubscriptionCanceled, v)
		hooks = append(hooks, "OnSubscriptionCanceled")
	}
	if v, ok := p.(OnPaymentTransferred); ok {
		r.onPaymentTransferred = append(r.onPaymentTransferred, v)
		hooks = append(hooks, "OnPaymentTransferred")
	}
	if v, ok := p.(OnOperationFailed); ok {
		r.onOperationFailed = append(r.onOperationFailed, v)
		hooks = append(hooks, "OnOperationFailed")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, program any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, program)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitCreatorProfileCreated emits a creator profile created event.
func (r *Registry) EmitCreatorProfileCreated(ctx context.Context, cfg *creator.Config) {
	r.mu.RLock()
	plugins := r.onCreatorProfileCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnCreatorProfileCreated", p.Name(), func() error {
			return p.OnCreatorProfileCreated(ctx, cfg)
		})
	}
}

// EmitPricesUpdated emits a prices updated event.
func (r *Registry) EmitPricesUpdated(ctx context.Context, before, after *creator.Config) {
	r.mu.RLock()
	plugins := r.onPricesUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnPricesUpdated", p.Name(), func() error {
			return p.OnPricesUpdated(ctx, before, after)
		})
	}
}

// EmitSubscribed emits a subscribed event.
func (r *Registry) EmitSubscribed(ctx context.Context, sub *subscription.Subscription, price types.Lamports) {
	r.mu.RLock()
	plugins := r.onSubscribed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscribed", p.Name(), func() error {
			return p.OnSubscribed(ctx, sub, price)
		})
	}
}

// EmitSubscriptionPaused emits a subscription paused event.
func (r *Registry) EmitSubscriptionPaused(ctx context.Context, sub *subscription.Subscription) {
	r.mu.RLock()
	plugins := r.onSubscriptionPaused
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionPaused", p.Name(), func() error {
			return p.OnSubscriptionPaused(ctx, sub)
		})
	}
}

// EmitSubscriptionResumed emits a subscription resumed event.
func (r *Registry) EmitSubscriptionResumed(ctx context.Context, sub *subscription.Subscription, pausedFor int64) {
	r.mu.RLock()
	plugins := r.onSubscriptionResumed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionResumed", p.Name(), func() error {
			return p.OnSubscriptionResumed(ctx, sub, pausedFor)
		})
	}
}

// EmitSubscriptionExtended emits a subscription extended event.
func (r *Registry) EmitSubscriptionExtended(ctx context.Context, sub *subscription.Subscription, t tier.Tier, price types.Lamports) {
	r.mu.RLock()
	plugins := r.onSubscriptionExtended
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionExtended", p.Name(), func() error {
			return p.OnSubscriptionExtended(ctx, sub, t, price)
		})
	}
}

// EmitSubscriptionCanceled emits a subscription canceled event.
func (r *Registry) EmitSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription, refund types.Lamports) {
	r.mu.RLock()
	plugins := r.onSubscriptionCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionCanceled", p.Name(), func() error {
			return p.OnSubscriptionCanceled(ctx, sub, refund)
		})
	}
}

// EmitPaymentTransferred emits a payment transferred event.
func (r *Registry) EmitPaymentTransferred(ctx context.Context, transfers []bank.Transfer) {
	r.mu.RLock()
	plugins := r.onPaymentTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnPaymentTransferred", p.Name(), func() error {
			return p.OnPaymentTransferred(ctx, transfers)
		})
	}
}

// EmitOperationFailed emits an operation failed event.
func (r *Registry) EmitOperationFailed(ctx context.Context, op string, caller id.ID, opErr error) {
	r.mu.RLock()
	plugins := r.onOperationFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOperationFailed", p.Name(), func() error {
			return p.OnOperationFailed(ctx, op, caller, opErr)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a lifecycle operation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
