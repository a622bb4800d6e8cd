package types

import "time"

// Entity carries bookkeeping timestamps for a persisted record.
// It is never part of the fixed-width on-ledger layout; backends that have
// columns for it (SQL, Mongo) persist it, the others leave it zero.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity with current timestamps.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp to now.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}
