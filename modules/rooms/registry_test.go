package rooms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/ephemeral-chat/domain/room"
	"github.com/example/ephemeral-chat/modules/storage"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(storage.NewMemoryStore(), newFakeClock())
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	return registry
}

func TestRegistry_CreateUniqueIDs(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rec, err := registry.Create(ctx, "Room", "", 30)
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if seen[rec.ID] {
			t.Fatalf("Create() repeated id %q", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestRegistry_CreateIDExhaustion(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	// Pin the generator so every attempt collides.
	registry.newID = func() string { return "fixedroomid0" }

	if _, err := registry.Create(ctx, "First", "", 30); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	_, err := registry.Create(ctx, "Second", "", 30)
	if !errors.Is(err, room.ErrIDExhausted) {
		t.Errorf("Create() error = %v, want %v", err, room.ErrIDExhausted)
	}
}

func TestRegistry_CreateTrimsName(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	rec, err := registry.Create(ctx, "  Standup  ", "", 30)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.Name != "Standup" {
		t.Errorf("Create() room.Name = %q, want %q", rec.Name, "Standup")
	}

	if _, err := registry.Create(ctx, "   ", "", 30); !errors.Is(err, room.ErrValidation) {
		t.Errorf("Create() error = %v, want %v", err, room.ErrValidation)
	}
}

func TestRegistry_FindByName(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	created, err := registry.Create(ctx, "Standup", "", 30)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	found, err := registry.FindByName(ctx, "STANDUP")
	if err != nil {
		t.Fatalf("FindByName() error: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("FindByName() id = %q, want %q", found.ID, created.ID)
	}

	if _, err := registry.FindByName(ctx, "nowhere"); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("FindByName() error = %v, want %v", err, room.ErrNotFound)
	}
}

// flakyStore injects version conflicts ahead of a real memory store.
type flakyStore struct {
	storage.Store
	mu       sync.Mutex
	failures int
}

func (s *flakyStore) Update(ctx context.Context, rec *room.Room, expectedVersion int64) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return room.ErrConflict
	}
	s.mu.Unlock()
	return s.Store.Update(ctx, rec, expectedVersion)
}

func TestRegistry_ApplyRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Store: storage.NewMemoryStore(), failures: 2}
	registry, err := NewRegistry(flaky, newFakeClock())
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	rec, err := registry.Create(ctx, "Contended", "", 30)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	calls := 0
	updated, err := registry.Apply(ctx, rec.ID, func(r *room.Room) error {
		calls++
		r.Name = "Renamed"
		return nil
	})
	if err != nil {
		t.Fatalf("Apply() error after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("Apply() mutator calls = %d, want 3", calls)
	}
	if updated.Name != "Renamed" || updated.Version != 2 {
		t.Errorf("Apply() got name=%q version=%d, want Renamed v2", updated.Name, updated.Version)
	}
}

func TestRegistry_ApplyGivesUpAfterBoundedRetries(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Store: storage.NewMemoryStore(), failures: 10}
	registry, err := NewRegistry(flaky, newFakeClock())
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	rec, err := registry.Create(ctx, "Contended", "", 30)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	_, err = registry.Apply(ctx, rec.ID, func(r *room.Room) error {
		r.Name = "Renamed"
		return nil
	})
	if !errors.Is(err, room.ErrConflict) {
		t.Errorf("Apply() error = %v, want %v", err, room.ErrConflict)
	}
}
