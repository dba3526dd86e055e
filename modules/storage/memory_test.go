package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ephemeral-chat/domain/room"
)

func testRoom(id string) *room.Room {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &room.Room{
		ID:        id,
		Name:      "Standup",
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
		Version:   1,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := testRoom("r1")
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, int64(1), got.Version)

	// Creating the same id again must fail.
	err = store.Create(ctx, testRoom("r1"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, room.ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := testRoom("r1")
	rec.Messages = []room.Message{{Seq: 1, RoomID: "r1", Sender: "System", Body: "hello"}}
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	got.Messages[0].Body = "mutated"
	got.Name = "mutated"

	again, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Messages[0].Body)
	assert.Equal(t, "Standup", again.Name)
}

func TestMemoryStore_UpdateVersionCheck(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, testRoom("r1")))

	rec, err := store.Get(ctx, "r1")
	require.NoError(t, err)

	rec.Version = 2
	rec.Name = "Renamed"
	require.NoError(t, store.Update(ctx, rec, 1))

	// A writer still holding version 1 must lose.
	stale := testRoom("r1")
	stale.Version = 2
	err = store.Update(ctx, stale, 1)
	assert.ErrorIs(t, err, room.ErrConflict)

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(2), got.Version)
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Update(ctx, testRoom("ghost"), 1)
	assert.ErrorIs(t, err, room.ErrNotFound)
}

func TestMemoryStore_CompareAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, testRoom("r1")))

	// Wrong version leaves the record alone.
	err := store.CompareAndDelete(ctx, "r1", 99)
	assert.ErrorIs(t, err, room.ErrConflict)
	_, err = store.Get(ctx, "r1")
	require.NoError(t, err)

	// Matching version removes it.
	require.NoError(t, store.CompareAndDelete(ctx, "r1", 1))
	_, err = store.Get(ctx, "r1")
	assert.ErrorIs(t, err, room.ErrNotFound)

	// Removing an absent record is a no-op.
	assert.NoError(t, store.CompareAndDelete(ctx, "r1", 1))
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, testRoom("r1")))
	require.NoError(t, store.Delete(ctx, "r1"))
	assert.NoError(t, store.Delete(ctx, "r1"))
}

func TestMemoryStore_IDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	ids, err := store.IDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.Create(ctx, testRoom("a")))
	require.NoError(t, store.Create(ctx, testRoom("b")))
	require.NoError(t, store.Create(ctx, testRoom("c")))

	ids, err = store.IDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, testRoom("r1")))

	// Two writers both read version 1; exactly one CAS succeeds.
	first, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	second, err := store.Get(ctx, "r1")
	require.NoError(t, err)

	first.Version = 2
	second.Version = 2

	err1 := store.Update(ctx, first, 1)
	err2 := store.Update(ctx, second, 1)

	if err1 == nil {
		assert.ErrorIs(t, err2, room.ErrConflict)
	} else {
		assert.ErrorIs(t, err1, room.ErrConflict)
		assert.NoError(t, err2)
	}
}
