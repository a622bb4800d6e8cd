// Package tier defines the three subscription tiers and their durations.
package tier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a value does not name one of the three tiers.
var ErrInvalid = errors.New("tier: invalid subscription tier")

// Tier is a subscription period. Its numeric value is the on-ledger
// enumeration tag (0=Month, 1=Quartal, 2=Annual).
type Tier uint8

const (
	Month Tier = iota
	Quartal
	Annual
)

const day int64 = 24 * 60 * 60

// Duration lengths in seconds.
const (
	MonthSeconds   = 30 * day
	QuartalSeconds = 90 * day
	AnnualSeconds  = 365 * day
)

// All lists the tiers in tag order.
func All() []Tier { return []Tier{Month, Quartal, Annual} }

// Valid reports whether t is one of the three tiers.
func (t Tier) Valid() bool { return t <= Annual }

// Duration returns the period length in seconds. Invalid tiers have no
// duration; callers validate before use.
func (t Tier) Duration() int64 {
	switch t {
	case Month:
		return MonthSeconds
	case Quartal:
		return QuartalSeconds
	case Annual:
		return AnnualSeconds
	default:
		return 0
	}
}

func (t Tier) String() string {
	switch t {
	case Month:
		return "month"
	case Quartal:
		return "quartal"
	case Annual:
		return "annual"
	default:
		return "tier(" + strconv.Itoa(int(t)) + ")"
	}
}

// Parse accepts a tier name ("month", "quartal", "annual", case-insensitive)
// or its enumeration tag ("0", "1", "2").
func Parse(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "monthly", "0":
		return Month, nil
	case "quartal", "quarterly", "1":
		return Quartal, nil
	case "annual", "yearly", "2":
		return Annual, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
}

// FromTag converts an on-ledger enumeration tag.
func FromTag(tag uint8) (Tier, error) {
	t := Tier(tag)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: tag %d", ErrInvalid, tag)
	}
	return t, nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: tag %d", ErrInvalid, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalJSON accepts both the numeric tag and the tier name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	return t.UnmarshalText([]byte(s))
}
