// Package storage provides the versioned room record store. Every backend
// offers the same contract: whole-record reads and version-checked writes,
// so one compare-and-swap covers a room's metadata, participant set and
// message log together.
package storage

import (
	"context"
	"errors"

	"github.com/example/ephemeral-chat/domain/room"
)

// ErrAlreadyExists is returned by Create when the room id is taken. The
// registry treats it as an id collision and retries with a fresh id.
var ErrAlreadyExists = errors.New("room id already exists")

// Store is the persistence contract for room records.
//
// Update and CompareAndDelete are atomic against concurrent writers: they
// succeed only if the stored record still carries expectedVersion. Delete is
// unconditional and idempotent.
type Store interface {
	// Create stores a new record. Fails with ErrAlreadyExists if the id is
	// taken.
	Create(ctx context.Context, rec *room.Room) error

	// Get returns a copy of the record, or room.ErrNotFound. Expired but
	// not yet reclaimed records are still returned; expiry policy lives in
	// the callers.
	Get(ctx context.Context, id string) (*room.Room, error)

	// Update replaces the record if the stored version equals
	// expectedVersion, else fails with room.ErrConflict. A missing record
	// fails with room.ErrNotFound.
	Update(ctx context.Context, rec *room.Room, expectedVersion int64) error

	// CompareAndDelete removes the record if the stored version equals
	// expectedVersion, else fails with room.ErrConflict. Removing an absent
	// record is a no-op.
	CompareAndDelete(ctx context.Context, id string, expectedVersion int64) error

	// Delete removes the record unconditionally. Idempotent.
	Delete(ctx context.Context, id string) error

	// IDs lists every stored room id, in no particular order.
	IDs(ctx context.Context) ([]string, error)
}
