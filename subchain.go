package subchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/plugin"
	"github.com/xraph/subchain/store"
)

// Program is the subscription engine for one creator deployment.
type Program struct {
	id       id.ProgramID
	store    store.Store
	bank     bank.Transferer
	resolver address.Resolver
	rent     bank.Rent
	clock    Clock
	plugins  *plugin.Registry
	logger   *slog.Logger
}

// New creates a new Program instance.
func New(s store.Store, opts ...Option) *Program {
	p := &Program{
		store:   s,
		rent:    bank.DefaultRent,
		clock:   SystemClock{},
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.id.IsNil() {
		p.id = id.NewProgramID()
	}
	if p.resolver == nil {
		p.resolver = address.NewSeedResolver(p.id)
	}
	if p.bank == nil {
		p.bank = bank.NewMemory()
		p.logger.Warn("subchain: no transferer configured, using an unfunded in-memory bank; paid operations fail until accounts are funded",
			"program_id", p.id.String(),
		)
	}

	return p
}

// Option configures a Program instance.
type Option func(*Program)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Program) {
		p.logger = logger
		p.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(pl plugin.Plugin) Option {
	return func(p *Program) {
		_ = p.plugins.Register(pl) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(p *Program) {
		p.plugins.WithTimeout(d)
	}
}

// WithProgramID pins the program ID that addresses are derived under.
// Without it every New call starts a fresh address namespace.
func WithProgramID(pid id.ProgramID) Option {
	return func(p *Program) {
		p.id = pid
	}
}

// WithResolver replaces the default seed resolver.
func WithResolver(r address.Resolver) Option {
	return func(p *Program) {
		p.resolver = r
	}
}

// WithTransferer sets the value-transfer backend.
func WithTransferer(t bank.Transferer) Option {
	return func(p *Program) {
		p.bank = t
	}
}

// WithRent sets the rent schedule used to size record deposits.
func WithRent(r bank.Rent) Option {
	return func(p *Program) {
		p.rent = r
	}
}

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(p *Program) {
		p.clock = c
	}
}

// ID returns the program ID.
func (p *Program) ID() id.ProgramID { return p.id }

// Plugins returns the plugin registry.
func (p *Program) Plugins() *plugin.Registry { return p.plugins }

// Store returns the record store.
func (p *Program) Store() store.Store { return p.store }

// Now returns the program clock's current unix time.
func (p *Program) Now() int64 { return p.clock.Now() }

// Start migrates the store and initializes plugins.
func (p *Program) Start(ctx context.Context) error {
	if err := p.store.Migrate(ctx); err != nil {
		return fmt.Errorf("subchain: migrate: %w", err)
	}

	p.plugins.EmitInit(ctx, p)

	p.logger.Info("subchain started",
		"program_id", p.id.String(),
		"plugins", p.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (p *Program) Stop() error {
	ctx := context.Background()
	p.plugins.EmitShutdown(ctx)

	return p.store.Close()
}

// Initialize is the deployment handshake. It touches no state.
func (p *Program) Initialize(_ context.Context) error {
	p.logger.Info("greetings from subchain", "program_id", p.id.String())
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// fail reports a rejected operation to plugins and returns err unchanged.
func (p *Program) fail(ctx context.Context, op string, caller id.ID, err error) error {
	p.logger.Debug("operation rejected",
		"op", op,
		"caller", caller.String(),
		"error", err,
	)
	p.plugins.EmitOperationFailed(ctx, op, caller, err)
	return err
}

// rollback runs undo after a failed write. A failed undo is logged and
// joined to cause.
func (p *Program) rollback(ctx context.Context, op string, cause error, undo func(context.Context) error) error {
	if err := undo(context.WithoutCancel(ctx)); err != nil {
		p.logger.Error("rollback failed",
			"op", op,
			"cause", cause,
			"error", err,
		)
		return errors.Join(cause, fmt.Errorf("subchain: %s rollback: %w", op, err))
	}
	return cause
}

// transfer moves value without announcing it. Callers report the batch
// with paid once every write of the operation has committed.
func (p *Program) transfer(ctx context.Context, transfers ...bank.Transfer) error {
	if err := p.bank.Batch(ctx, transfers...); err != nil {
		return fmt.Errorf("subchain: transfer: %w", err)
	}
	return nil
}

func (p *Program) paid(ctx context.Context, transfers ...bank.Transfer) {
	p.plugins.EmitPaymentTransferred(ctx, transfers)
}

func requireCaller(caller id.ID) error {
	if caller.IsNil() {
		return ValidationError{Field: "caller", Err: ErrInvalidInput}
	}
	return nil
}
