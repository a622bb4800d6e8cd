package postgres

import (
	"errors"
	"testing"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
)

func TestConfigModelRoundTrip(t *testing.T) {
	addr, bump, err := address.NewSeedResolver(id.NewProgramID()).Resolve(address.ConfigSeed, id.Nil)
	if err != nil {
		t.Fatal(err)
	}
	in := &creator.Config{Address: addr, Creator: id.NewAccountID(), MonthlyPrice: 100, QuartalPrice: 250, AnnualPrice: 900, Bump: bump}

	out, err := fromConfigModel(toConfigModel(in))
	if err != nil {
		t.Fatal(err)
	}
	if out.Address != in.Address || !out.Creator.Equal(in.Creator) || out.Prices() != in.Prices() || out.Bump != in.Bump {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestSubscriptionModelRejectsBadRows(t *testing.T) {
	who := id.NewAccountID()
	addr, bump, err := address.NewSeedResolver(id.NewProgramID()).Resolve(address.SubscriptionSeed, who)
	if err != nil {
		t.Fatal(err)
	}
	good := toSubscriptionModel(&subscription.Subscription{Address: addr, Subscriber: who, Tier: tier.Annual, EndTimestamp: 10, Bump: bump})

	tests := []struct {
		name   string
		mutate func(m *subscriptionModel)
		want   error
	}{
		{"bad tier", func(m *subscriptionModel) { m.Tier = 3 }, tier.ErrInvalid},
		{"bad address", func(m *subscriptionModel) { m.Address = "xyz" }, address.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := *good
			tt.mutate(&m)
			if _, err := fromSubscriptionModel(&m); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := fromSubscriptionModel(good); err != nil {
		t.Errorf("good row: %v", err)
	}
}
