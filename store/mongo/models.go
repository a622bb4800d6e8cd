package mongo

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

// The record address is the document _id, so the collection's primary key
// enforces one record per address.

// ==================== Creator config model ====================

type configModel struct {
	grove.BaseModel `grove:"table:subchain_creator_configs"`

	Address      string    `grove:"address,pk"     bson:"_id"`
	Creator      string    `grove:"creator"        bson:"creator"`
	MonthlyPrice int64     `grove:"monthly_price"  bson:"monthly_price"`
	QuartalPrice int64     `grove:"quartal_price"  bson:"quartal_price"`
	AnnualPrice  int64     `grove:"annual_price"   bson:"annual_price"`
	Bump         int32     `grove:"bump"           bson:"bump"`
	Deposit      int64     `grove:"deposit"        bson:"deposit"`
	CreatedAt    time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"     bson:"updated_at"`
}

func toConfigModel(c *creator.Config) *configModel {
	return &configModel{
		Address:      c.Address.String(),
		Creator:      c.Creator.String(),
		MonthlyPrice: int64(c.MonthlyPrice),
		QuartalPrice: int64(c.QuartalPrice),
		AnnualPrice:  int64(c.AnnualPrice),
		Bump:         int32(c.Bump),
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
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
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

	Address      string    `grove:"address,pk"     bson:"_id"`
	Subscriber   string    `grove:"subscriber"     bson:"subscriber"`
	Tier         int32     `grove:"tier"           bson:"tier"`
	EndTimestamp int64     `grove:"end_timestamp"  bson:"end_timestamp"`
	PausedAt     int64     `grove:"paused_at"      bson:"paused_at"`
	Bump         int32     `grove:"bump"           bson:"bump"`
	Deposit      int64     `grove:"deposit"        bson:"deposit"`
	CreatedAt    time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"     bson:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		Address:      s.Address.String(),
		Subscriber:   s.Subscriber.String(),
		Tier:         int32(s.Tier),
		EndTimestamp: s.EndTimestamp,
		PausedAt:     s.PausedAt,
		Bump:         int32(s.Bump),
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
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Address:      addr,
		Subscriber:   who,
		Tier:         t,
		EndTimestamp: m.EndTimestamp,
		PausedAt:     m.PausedAt,
		Bump:         uint8(m.Bump),
		Deposit:      types.Lamports(m.Deposit),
	}, nil
}
