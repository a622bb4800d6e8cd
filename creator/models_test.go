package creator_test

import (
	"errors"
	"testing"

	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

func TestPriceOf(t *testing.T) {
	c := &creator.Config{MonthlyPrice: 100, QuartalPrice: 250, AnnualPrice: 900}

	tests := []struct {
		tier tier.Tier
		want types.Lamports
	}{
		{tier.Month, 100},
		{tier.Quartal, 250},
		{tier.Annual, 900},
		{tier.Tier(5), 0},
	}
	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			if got := c.PriceOf(tt.tier); got != tt.want {
				t.Errorf("PriceOf(%v) = %d, want %d", tt.tier, got, tt.want)
			}
		})
	}
}

func TestValidatePrices(t *testing.T) {
	tests := []struct {
		name  string
		m, q  types.Lamports
		a     types.Lamports
		field string
	}{
		{"all positive", 1, 1, 1, ""},
		{"monthly zero", 0, 250, 900, "monthly_price"},
		{"quartal zero", 100, 0, 900, "quartal_price"},
		{"annual zero", 100, 250, 0, "annual_price"},
		{"all zero", 0, 0, 0, "monthly_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := creator.ValidatePrices(tt.m, tt.q, tt.a)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var fe *creator.FieldError
			if !errors.As(err, &fe) || fe.Field != tt.field {
				t.Fatalf("got %v, want FieldError on %s", err, tt.field)
			}
			if !errors.Is(err, creator.ErrPriceTooLow) {
				t.Errorf("error should wrap ErrPriceTooLow")
			}
		})
	}
}

func TestPriceUpdate(t *testing.T) {
	c := &creator.Config{MonthlyPrice: 100, QuartalPrice: 250, AnnualPrice: 900}

	empty := creator.PriceUpdate{}
	if !empty.IsEmpty() || empty.Validate() != nil {
		t.Fatal("empty update should be a valid no-op")
	}
	empty.Apply(c)
	if c.Prices() != [3]types.Lamports{100, 250, 900} {
		t.Fatalf("empty update changed prices: %v", c.Prices())
	}

	bad := creator.PriceUpdate{Monthly: creator.Price(120), Annual: creator.Price(0)}
	if err := bad.Validate(); !errors.Is(err, creator.ErrPriceTooLow) {
		t.Fatalf("got %v, want ErrPriceTooLow", err)
	}

	partial := creator.PriceUpdate{Quartal: creator.Price(300)}
	if err := partial.Validate(); err != nil {
		t.Fatal(err)
	}
	partial.Apply(c)
	if c.Prices() != [3]types.Lamports{100, 300, 900} {
		t.Errorf("partial update: got %v", c.Prices())
	}
}
