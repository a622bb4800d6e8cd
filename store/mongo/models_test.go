package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

func TestConfigModelConversion(t *testing.T) {
	addr, bump, err := address.NewSeedResolver(id.NewProgramID()).Resolve(address.ConfigSeed, id.Nil)
	require.NoError(t, err)

	in := &creator.Config{
		Entity: types.NewEntity(), Address: addr, Creator: id.NewAccountID(),
		MonthlyPrice: 100, QuartalPrice: 250, AnnualPrice: 900, Bump: bump, Deposit: 5,
	}
	m := toConfigModel(in)
	assert.Equal(t, addr.String(), m.Address)

	out, err := fromConfigModel(m)
	require.NoError(t, err)
	assert.Equal(t, in.Address, out.Address)
	assert.True(t, in.Creator.Equal(out.Creator))
	assert.Equal(t, in.Prices(), out.Prices())
	assert.Equal(t, in.Bump, out.Bump)
	assert.Equal(t, in.Deposit, out.Deposit)
}

func TestSubscriptionModelConversion(t *testing.T) {
	who := id.NewAccountID()
	addr, bump, err := address.NewSeedResolver(id.NewProgramID()).Resolve(address.SubscriptionSeed, who)
	require.NoError(t, err)

	in := &subscription.Subscription{
		Address: addr, Subscriber: who, Tier: tier.Quartal,
		EndTimestamp: 9_000, PausedAt: 4_000, Bump: bump, Deposit: 7,
	}
	out, err := fromSubscriptionModel(toSubscriptionModel(in))
	require.NoError(t, err)
	assert.True(t, who.Equal(out.Subscriber))
	assert.Equal(t, in.Tier, out.Tier)
	assert.Equal(t, in.EndTimestamp, out.EndTimestamp)
	assert.Equal(t, in.PausedAt, out.PausedAt)

	bad := toSubscriptionModel(in)
	bad.Tier = 7
	_, err = fromSubscriptionModel(bad)
	assert.ErrorIs(t, err, tier.ErrInvalid)

	bad = toSubscriptionModel(in)
	bad.Address = "nope"
	_, err = fromSubscriptionModel(bad)
	assert.ErrorIs(t, err, address.ErrInvalid)
}

func TestMigrationIndexes(t *testing.T) {
	idx := migrationIndexes()
	require.Contains(t, idx, colSubscriptions)
	assert.Len(t, idx[colSubscriptions], 3)
	assert.Contains(t, idx, colConfigs)
}
