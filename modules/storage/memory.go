package storage

import (
	"context"
	"sync"

	"github.com/example/ephemeral-chat/domain/room"
)

// MemoryStore keeps room records in process memory. It is the default
// backend for single-process deployments and for tests.
type MemoryStore struct {
	rooms map[string]*room.Room
	mu    sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*room.Room),
	}
}

// Create stores a new record.
func (s *MemoryStore) Create(_ context.Context, rec *room.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[rec.ID]; exists {
		return ErrAlreadyExists
	}
	s.rooms[rec.ID] = rec.Clone()
	return nil
}

// Get returns a copy of the record.
func (s *MemoryStore) Get(_ context.Context, id string) (*room.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.rooms[id]
	if !exists {
		return nil, room.ErrNotFound
	}
	return rec.Clone(), nil
}

// Update replaces the record under a version check.
func (s *MemoryStore) Update(_ context.Context, rec *room.Room, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.rooms[rec.ID]
	if !exists {
		return room.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return room.ErrConflict
	}
	s.rooms[rec.ID] = rec.Clone()
	return nil
}

// CompareAndDelete removes the record under a version check.
func (s *MemoryStore) CompareAndDelete(_ context.Context, id string, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.rooms[id]
	if !exists {
		return nil
	}
	if stored.Version != expectedVersion {
		return room.ErrConflict
	}
	delete(s.rooms, id)
	return nil
}

// Delete removes the record unconditionally.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, id)
	return nil
}

// IDs lists every stored room id.
func (s *MemoryStore) IDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
