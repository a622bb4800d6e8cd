package creator

import (
	"context"

	"github.com/xraph/subchain/address"
)

// Store persists the creator configuration. CreateConfig must fail when a
// record already exists at the address. DeleteConfig exists only to undo a
// creation whose deposit could not be collected.
type Store interface {
	CreateConfig(ctx context.Context, c *Config) error
	GetConfig(ctx context.Context, addr address.Address) (*Config, error)
	UpdateConfig(ctx context.Context, c *Config) error
	DeleteConfig(ctx context.Context, addr address.Address) error
}
