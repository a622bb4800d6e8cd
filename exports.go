package subchain

import (
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Lamports is re-exported from types package.
type Lamports = types.Lamports

// Entity is re-exported from types package.
type Entity = types.Entity

// Tier is re-exported from tier package.
type Tier = tier.Tier

// Re-export tier values.
const (
	Month   = tier.Month
	Quartal = tier.Quartal
	Annual  = tier.Annual
)

// LamportsPerNative is re-exported from types package.
const LamportsPerNative = types.LamportsPerNative

// Re-export Entity constructor
var NewEntity = types.NewEntity
