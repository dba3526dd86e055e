package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/ephemeral-chat/domain/room"
	"github.com/example/ephemeral-chat/modules/storage"
)

const (
	// maxIDAttempts bounds id regeneration on collision before giving up.
	maxIDAttempts = 10
	// applyAttempts bounds optimistic retries of a mutation on version conflict.
	applyAttempts = 3
	// applyBackoff is the pause between optimistic retries.
	applyBackoff = 25 * time.Millisecond
)

// errNoChange signals that a mutator decided the record needs no write.
// Apply treats it as success without bumping the version.
var errNoChange = errors.New("no change")

// Registry owns room lifecycle metadata: creation, lookup, versioned
// updates, and removal. Message and participant mutations go through
// Update/Apply so every write is a compare-and-swap on the record version.
type Registry struct {
	store  storage.Store
	clock  room.Clock
	hasher *PasscodeHasher
	newID  func() string
}

// NewRegistry creates a registry over the given store.
func NewRegistry(store storage.Store, clock room.Clock) (*Registry, error) {
	newID, err := newIDGenerator()
	if err != nil {
		return nil, err
	}
	return &Registry{
		store:  store,
		clock:  clock,
		hasher: NewPasscodeHasher(),
		newID:  newID,
	}, nil
}

// Create provisions a room with a fresh id. A zero ttl selects the default
// lifetime. A non-empty passcode gates the room; its hash is stored, never
// the passcode itself.
func (r *Registry) Create(ctx context.Context, name, passcode string, ttlMinutes int) (*room.Room, error) {
	name = strings.TrimSpace(name)
	if err := ValidateRoomName(name); err != nil {
		return nil, err
	}
	if ttlMinutes == 0 {
		ttlMinutes = room.DefaultTTLMinutes
	}
	if err := ValidateTTLMinutes(ttlMinutes); err != nil {
		return nil, err
	}

	var passcodeHash string
	if passcode != "" {
		hash, err := r.hasher.Hash(passcode)
		if err != nil {
			return nil, err
		}
		passcodeHash = hash
	}

	now := r.clock.Now()
	rec := &room.Room{
		Name:         name,
		PasscodeHash: passcodeHash,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Duration(ttlMinutes) * time.Minute),
		Version:      1,
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		rec.ID = r.newID()
		err := r.store.Create(ctx, rec)
		if err == nil {
			return rec.Clone(), nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not allocate a unique room id", room.ErrIDExhausted)
}

// Get returns a copy of a room record.
func (r *Registry) Get(ctx context.Context, id string) (*room.Room, error) {
	return r.store.Get(ctx, id)
}

// FindByName returns the first room whose name matches case-insensitively.
func (r *Registry) FindByName(ctx context.Context, name string) (*room.Room, error) {
	ids, err := r.store.IDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		rec, err := r.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, room.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if strings.EqualFold(rec.Name, name) {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: no room named %q", room.ErrNotFound, name)
}

// List returns copies of every stored room record.
func (r *Registry) List(ctx context.Context) ([]*room.Room, error) {
	ids, err := r.store.IDs(ctx)
	if err != nil {
		return nil, err
	}
	recs := make([]*room.Room, 0, len(ids))
	for _, id := range ids {
		rec, err := r.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, room.ErrNotFound) {
				continue
			}
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Update runs one compare-and-swap attempt against the expected version.
// The mutator receives a private copy; the write lands only if no other
// writer got there first, otherwise ErrConflict surfaces unchanged.
func (r *Registry) Update(ctx context.Context, id string, mutate func(*room.Room) error) (*room.Room, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := rec.Version
	if err := mutate(rec); err != nil {
		return nil, err
	}
	rec.Version = expected + 1
	if err := r.store.Update(ctx, rec, expected); err != nil {
		return nil, err
	}
	return rec, nil
}

// Apply runs a mutation with bounded optimistic retries. On version conflict
// the mutator re-runs against a fresh read, so its checks always see the
// latest record. Mutator errors other than conflicts abort immediately.
func (r *Registry) Apply(ctx context.Context, id string, mutate func(*room.Room) error) (*room.Room, error) {
	var lastErr error
	for attempt := 0; attempt < applyAttempts; attempt++ {
		rec, err := r.Update(ctx, id, mutate)
		if err == nil {
			return rec, nil
		}
		if errors.Is(err, errNoChange) {
			return r.store.Get(ctx, id)
		}
		if !errors.Is(err, room.ErrConflict) {
			return nil, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(applyBackoff):
		}
	}
	return nil, lastErr
}

// Remove deletes a room unconditionally. Missing rooms are not an error.
func (r *Registry) Remove(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// Hasher exposes the registry's passcode hasher for admission checks.
func (r *Registry) Hasher() *PasscodeHasher {
	return r.hasher
}

// Clock exposes the registry's time source.
func (r *Registry) Clock() room.Clock {
	return r.clock
}
