package plugin_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/plugin"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/types"
)

type recordingPlugin struct {
	name string

	mu     sync.Mutex
	events []string
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) add(e string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPlugin) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *recordingPlugin) OnCreatorProfileCreated(_ context.Context, _ *creator.Config) error {
	p.add("creator")
	return nil
}

func (p *recordingPlugin) OnSubscribed(_ context.Context, _ *subscription.Subscription, price types.Lamports) error {
	p.add("subscribed:" + price.String())
	return nil
}

func (p *recordingPlugin) OnPaymentTransferred(_ context.Context, ts []bank.Transfer) error {
	p.add("transfers")
	return nil
}

type failingPlugin struct{}

func (failingPlugin) Name() string { return "failing" }

func (failingPlugin) OnSubscriptionPaused(context.Context, *subscription.Subscription) error {
	return errors.New("boom")
}

type slowPlugin struct{}

func (slowPlugin) Name() string { return "slow" }

func (slowPlugin) OnOperationFailed(ctx context.Context, _ string, _ id.ID, _ error) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func TestRegisterDuplicate(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(&recordingPlugin{name: "rec"}))
	assert.Error(t, r.Register(&recordingPlugin{name: "rec"}))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("rec"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.List(), 1)
}

func TestDispatchOnlyImplementedHooks(t *testing.T) {
	ctx := context.Background()
	r := plugin.NewRegistry()
	rec := &recordingPlugin{name: "rec"}
	require.NoError(t, r.Register(rec))

	r.EmitCreatorProfileCreated(ctx, &creator.Config{})
	r.EmitSubscribed(ctx, &subscription.Subscription{}, 100)
	r.EmitSubscriptionPaused(ctx, &subscription.Subscription{})
	r.EmitPaymentTransferred(ctx, []bank.Transfer{{From: "a", To: "b", Amount: 1}})

	assert.Equal(t, []string{"creator", "subscribed:100 lamports", "transfers"}, rec.seen())
}

func TestHookFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := plugin.NewRegistry().WithLogger(logger)
	require.NoError(t, r.Register(failingPlugin{}))

	r.EmitSubscriptionPaused(context.Background(), &subscription.Subscription{})
	assert.Contains(t, buf.String(), "plugin OnSubscriptionPaused failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestHookTimeout(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := plugin.NewRegistry().WithLogger(logger).WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(slowPlugin{}))

	start := time.Now()
	r.EmitOperationFailed(context.Background(), "pause", id.NewAccountID(), errors.New("x"))
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Contains(t, buf.String(), "plugin timeout: slow")
}
