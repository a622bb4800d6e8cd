package subchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/codec"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/types"
)

// ──────────────────────────────────────────────────
// Creator Config
// ──────────────────────────────────────────────────

// CreateCreatorProfile creates the singleton creator configuration with
// caller as creator. The caller pays the record's storage deposit.
func (p *Program) CreateCreatorProfile(ctx context.Context, caller id.AccountID, monthly, quartal, annual types.Lamports) (*creator.Config, error) {
	const op = "create_creator_profile"

	if err := requireCaller(caller); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}
	if err := creator.ValidatePrices(monthly, quartal, annual); err != nil {
		return nil, p.fail(ctx, op, caller, priceError(err))
	}

	addr, bump, err := p.resolver.Resolve(address.ConfigSeed, id.Nil)
	if err != nil {
		return nil, p.fail(ctx, op, caller, fmt.Errorf("subchain: resolve config: %w", err))
	}

	switch _, err := p.store.GetConfig(ctx, addr); {
	case err == nil:
		return nil, p.fail(ctx, op, caller, ErrConfigAlreadyInitialized)
	case !errors.Is(err, ErrConfigNotFound):
		return nil, p.fail(ctx, op, caller, err)
	}

	cfg := &creator.Config{
		Entity:       types.NewEntity(),
		Address:      addr,
		Creator:      caller,
		MonthlyPrice: monthly,
		QuartalPrice: quartal,
		AnnualPrice:  annual,
		Bump:         bump,
		Deposit:      p.rent.MinimumBalance(codec.ConfigSpace),
	}

	if err := p.store.CreateConfig(ctx, cfg); err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}

	deposit := bank.Transfer{From: bank.ForID(caller), To: bank.ForAddress(addr), Amount: cfg.Deposit}
	if err := p.transfer(ctx, deposit); err != nil {
		err = p.rollback(ctx, op, err, func(ctx context.Context) error {
			return p.store.DeleteConfig(ctx, addr)
		})
		return nil, p.fail(ctx, op, caller, err)
	}
	p.paid(ctx, deposit)

	p.logger.Info("creator profile created",
		"creator", caller.String(),
		"address", addr.String(),
		"monthly", monthly.Uint64(),
		"quartal", quartal.Uint64(),
		"annual", annual.Uint64(),
	)

	p.plugins.EmitCreatorProfileCreated(ctx, cfg)
	return cfg, nil
}

// UpdateCreatorPrice replaces any subset of the tier prices. Only the
// configured creator may call it. Every supplied price is validated before
// any is written; an empty update succeeds without writing.
func (p *Program) UpdateCreatorPrice(ctx context.Context, caller id.AccountID, update creator.PriceUpdate) (*creator.Config, error) {
	const op = "update_creator_price"

	cfg, err := p.loadConfig(ctx)
	if err != nil {
		return nil, p.fail(ctx, op, caller, err)
	}
	if !cfg.Creator.Equal(caller) {
		return nil, p.fail(ctx, op, caller, ErrUnauthorized)
	}
	if err := update.Validate(); err != nil {
		return nil, p.fail(ctx, op, caller, priceError(err))
	}

	before := *cfg
	if !update.IsEmpty() {
		update.Apply(cfg)
		cfg.Touch()
		if err := p.store.UpdateConfig(ctx, cfg); err != nil {
			return nil, p.fail(ctx, op, caller, err)
		}
	}

	p.logger.Info("creator prices updated",
		"creator", caller.String(),
		"monthly", cfg.MonthlyPrice.Uint64(),
		"quartal", cfg.QuartalPrice.Uint64(),
		"annual", cfg.AnnualPrice.Uint64(),
	)

	p.plugins.EmitPricesUpdated(ctx, &before, cfg)
	return cfg, nil
}

// Config returns the creator configuration.
func (p *Program) Config(ctx context.Context) (*creator.Config, error) {
	return p.loadConfig(ctx)
}

// loadConfig fetches the configuration at its canonical address and checks
// that the stored bump still derives it.
func (p *Program) loadConfig(ctx context.Context) (*creator.Config, error) {
	addr, _, err := p.resolver.Resolve(address.ConfigSeed, id.Nil)
	if err != nil {
		return nil, fmt.Errorf("subchain: resolve config: %w", err)
	}

	cfg, err := p.store.GetConfig(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := p.resolver.Verify(address.ConfigSeed, id.Nil, cfg.Bump, cfg.Address); err != nil {
		return nil, fmt.Errorf("subchain: config record: %w", err)
	}
	return cfg, nil
}
