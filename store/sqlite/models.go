package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// SQLite INTEGER is a signed 64-bit value; lamport amounts above
// math.MaxInt64 are not representable.

// ==================== Creator config model ====================

type configModel struct {
	grove.BaseModel `grove:"table:subchain_creator_configs"`

	Address      string    `grove:"address,pk"`
	Creator      string    `grove:"creator"`
	MonthlyPrice int64     `grove:"monthly_price"`
	QuartalPrice int64     `grove:"quartal_price"`
	AnnualPrice  int64     `grove:"annual_price"`
	Bump         int16     `grove:"bump"`
	Deposit      int64     `grove:"deposit"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toConfigModel(c *creator.Config) *configModel {
	return &configModel{
		Address:      c.Address.String(),
		Creator:      c.Creator.String(),
		MonthlyPrice: int64(c.MonthlyPrice),
		QuartalPrice: int64(c.QuartalPrice),
		AnnualPrice:  int64(c.AnnualPrice),
		Bump:         int16(c.Bump),
		Deposit:      int64(c.Deposit),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromConfigModel(m *configModel) (*creator.Config, error) {
	addr, err := address.Parse(m.Address)
	if err != nil {
		return nil, err
	}
	who, err := id.ParseAccountID(m.Creator)
	if err != nil {
		return nil, err
	}

	return &creator.Config{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Address:      addr,
		Creator:      who,
		MonthlyPrice: types.Lamports(m.MonthlyPrice),
		QuartalPrice: types.Lamports(m.QuartalPrice),
		AnnualPrice:  types.Lamports(m.AnnualPrice),
		Bump:         uint8(m.Bump),
		Deposit:      types.Lamports(m.Deposit),
	}, nil
}

// ==================== Subscription model ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:subchain_subscriptions"`

	Address      string    `grove:"address,pk"`
	Subscriber   string    `grove:"subscriber"`
	Tier         int16     `grove:"tier"`
	EndTimestamp int64     `grove:"end_timestamp"`
	PausedAt     int64     `grove:"paused_at"`
	Bump         int16     `grove:"bump"`
	Deposit      int64     `grove:"deposit"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		Address:      s.Address.String(),
		Subscriber:   s.Subscriber.String(),
		Tier:         int16(s.Tier),
		EndTimestamp: s.EndTimestamp,
		PausedAt:     s.PausedAt,
		Bump:         int16(s.Bump),
		Deposit:      int64(s.Deposit),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	addr, err := address.Parse(m.Address)
	if err != nil {
		return nil, err
	}
	who, err := id.ParseAccountID(m.Subscriber)
	if err != nil {
		return nil, err
	}
	t, err := tier.FromTag(uint8(m.Tier))
	if err != nil {
		return nil, err
	}

	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Address:      addr,
		Subscriber:   who,
		Tier:         t,
		EndTimestamp: m.EndTimestamp,
		PausedAt:     m.PausedAt,
		Bump:         uint8(m.Bump),
		Deposit:      types.Lamports(m.Deposit),
	}, nil
}
