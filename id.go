package subchain

import "github.com/xraph/subchain/id"

// ID is the identifier type for accounts and program deployments.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
