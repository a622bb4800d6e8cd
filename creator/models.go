// Package creator defines the singleton creator configuration record.
package creator

import (
	"errors"
	"fmt"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// ErrPriceTooLow is returned when a tier price is zero.
var ErrPriceTooLow = errors.New("creator: price must be greater than zero")

// Config holds the single creator's identity and tier prices.
type Config struct {
	types.Entity
	Address      address.Address `json:"address"`
	Creator      id.AccountID    `json:"creator"`
	MonthlyPrice types.Lamports  `json:"monthly_price"`
	QuartalPrice types.Lamports  `json:"quartal_price"`
	AnnualPrice  types.Lamports  `json:"annual_price"`
	Bump         uint8           `json:"bump"`
	Deposit      types.Lamports  `json:"deposit"`
}

// PriceOf returns the price of one period of t. Unknown tiers cost nothing;
// callers validate the tier first.
func (c *Config) PriceOf(t tier.Tier) types.Lamports {
	switch t {
	case tier.Month:
		return c.MonthlyPrice
	case tier.Quartal:
		return c.QuartalPrice
	case tier.Annual:
		return c.AnnualPrice
	default:
		return 0
	}
}

// Prices returns the three prices in tier order.
func (c *Config) Prices() [3]types.Lamports {
	return [3]types.Lamports{c.MonthlyPrice, c.QuartalPrice, c.AnnualPrice}
}

// FieldError names the price field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

// ValidatePrices checks that all three prices are positive.
func ValidatePrices(monthly, quartal, annual types.Lamports) error {
	for _, p := range []struct {
		field string
		value types.Lamports
	}{
		{"monthly_price", monthly},
		{"quartal_price", quartal},
		{"annual_price", annual},
	} {
		if !p.value.IsPositive() {
			return &FieldError{Field: p.field, Err: ErrPriceTooLow}
		}
	}
	return nil
}

// PriceUpdate carries an optional replacement for each tier price.
// Nil fields are left unchanged.
type PriceUpdate struct {
	Monthly *types.Lamports `json:"monthly_price,omitempty"`
	Quartal *types.Lamports `json:"quartal_price,omitempty"`
	Annual  *types.Lamports `json:"annual_price,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u PriceUpdate) IsEmpty() bool {
	return u.Monthly == nil && u.Quartal == nil && u.Annual == nil
}

// Validate checks every supplied field. Nothing is applied by Validate.
func (u PriceUpdate) Validate() error {
	if u.Monthly != nil && !u.Monthly.IsPositive() {
		return &FieldError{Field: "monthly_price", Err: ErrPriceTooLow}
	}
	if u.Quartal != nil && !u.Quartal.IsPositive() {
		return &FieldError{Field: "quartal_price", Err: ErrPriceTooLow}
	}
	if u.Annual != nil && !u.Annual.IsPositive() {
		return &FieldError{Field: "annual_price", Err: ErrPriceTooLow}
	}
	return nil
}

// Apply writes the supplied prices into c. Call Validate first.
func (u PriceUpdate) Apply(c *Config) {
	if u.Monthly != nil {
		c.MonthlyPrice = *u.Monthly
	}
	if u.Quartal != nil {
		c.QuartalPrice = *u.Quartal
	}
	if u.Annual != nil {
		c.AnnualPrice = *u.Annual
	}
}

// Price returns a pointer to v, for building a PriceUpdate.
func Price(v types.Lamports) *types.Lamports { return &v }
