// Package store defines the two persistence interfaces the sync engine
// routes between: a local durable store that works with no network, and a
// remote authoritative store that is the source of truth when reachable.
// Implementations live under internal/store/<driver>/.
package store

import (
	"context"

	"github.com/pocketsync/pocketsync/internal/model"
)

// Local is the durable key-value record store keyed by item ID. It must
// survive process restarts and be available with no network. Every call
// completes or fails atomically; no partial writes are visible.
type Local interface {
	// Put inserts or replaces the record with item.ID as key.
	Put(ctx context.Context, item model.Item) error

	// GetAll returns every record in the store, in insertion order.
	// Callers filter to the active user.
	GetAll(ctx context.Context) ([]model.Item, error)

	// Delete removes the record with the given ID. Deleting a missing
	// record is a no-op, not an error.
	Delete(ctx context.Context, id model.ItemID) error

	// Clear removes every record. Used by the mirror rewrite after a
	// successful remote read.
	Clear(ctx context.Context) error
}

// Remote is the network-backed authoritative store scoped per user.
// Failures are classified: a transient-error condition is distinct from
// not-found (errors.IsTransient vs errors.IsNotFound).
type Remote interface {
	// Insert creates a record without specifying an ID; the store assigns
	// the canonical remote ID and returns it.
	Insert(ctx context.Context, item model.Item) (model.ItemID, error)

	// Upsert writes the record under the given ID, replacing any existing
	// record. Remote state wins on conflicting fields.
	Upsert(ctx context.Context, id model.ItemID, item model.Item) error

	// QueryByOwner returns all records owned by userID ordered by
	// timestamp ascending.
	QueryByOwner(ctx context.Context, userID string) ([]model.Item, error)

	// Delete removes the record with the given ID. Returns an error
	// wrapping errors.ErrNotFound when the record does not exist.
	Delete(ctx context.Context, id model.ItemID) error
}
