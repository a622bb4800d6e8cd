// Package types provides common types used across subchain.
package types

import (
	"errors"
	"fmt"
	"math/bits"
)

// LamportsPerNative is the number of lamports in one whole native token.
const LamportsPerNative Lamports = 1_000_000_000

var (
	// ErrOverflow is returned when an addition exceeds the uint64 range.
	ErrOverflow = errors.New("lamports: arithmetic overflow")

	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("lamports: arithmetic underflow")
)

// Lamports is an amount of the host ledger's native asset in its smallest
// unit. All arithmetic is unsigned and checked; there is no floating point
// and no currency, the native asset is the only one.
//
// Examples:
//   - Lamports(100)           = 0.000000100
//   - Lamports(1_500_000_000) = 1.500000000
type Lamports uint64

// Add returns m + other, or ErrOverflow.
func (m Lamports) Add(other Lamports) (Lamports, error) {
	sum, carry := bits.Add64(uint64(m), uint64(other), 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, m, other)
	}
	return Lamports(sum), nil
}

// Sub returns m - other, or ErrUnderflow.
func (m Lamports) Sub(other Lamports) (Lamports, error) {
	if other > m {
		return 0, fmt.Errorf("%w: %d - %d", ErrUnderflow, m, other)
	}
	return m - other, nil
}

// Mul returns m * qty, or ErrOverflow.
func (m Lamports) Mul(qty uint64) (Lamports, error) {
	hi, lo := bits.Mul64(uint64(m), qty)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, m, qty)
	}
	return Lamports(lo), nil
}

// IsZero returns true if the amount is zero.
func (m Lamports) IsZero() bool { return m == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Lamports) IsPositive() bool { return m > 0 }

// Uint64 returns the raw amount.
func (m Lamports) Uint64() uint64 { return uint64(m) }

// FormatMajor returns the amount in whole native units with nine decimals,
// e.g. "1.500000000" for Lamports(1_500_000_000).
func (m Lamports) FormatMajor() string {
	return fmt.Sprintf("%d.%09d", m/LamportsPerNative, m%LamportsPerNative)
}

// String returns a human-readable amount, e.g. "100 lamports".
func (m Lamports) String() string {
	if m == 1 {
		return "1 lamport"
	}
	return fmt.Sprintf("%d lamports", uint64(m))
}

// Sum adds all values with overflow checking.
func Sum(values ...Lamports) (Lamports, error) {
	var total Lamports
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return 0, err
		}
	}
	return total, nil
}
