package bank

import "github.com/xraph/subchain/types"

// Rent computes the deposit a record must hold to stay exempt from storage
// rent for its lifetime.
type Rent struct {
	// LamportsPerByteYear is the yearly storage price per byte.
	LamportsPerByteYear uint64
	// ExemptionYears is how many years of rent the deposit prepays.
	ExemptionYears uint64
	// Overhead is the per-record metadata size charged on top of the data.
	Overhead uint64
}

// DefaultRent mirrors the cluster defaults: 3480 lamports per byte-year,
// two years prepaid, 128 bytes of record overhead.
var DefaultRent = Rent{
	LamportsPerByteYear: 3480,
	ExemptionYears:      2,
	Overhead:            128,
}

// MinimumBalance returns the rent-exempt deposit for a record of space bytes.
func (r Rent) MinimumBalance(space int) types.Lamports {
	return types.Lamports((r.Overhead + uint64(space)) * r.LamportsPerByteYear * r.ExemptionYears)
}
