package rooms

import (
	"context"
	"fmt"
	"time"

	"github.com/example/ephemeral-chat/domain/room"
	"github.com/example/ephemeral-chat/modules/storage"
)

// Service composes the registry, conversation log and session gate into the
// operation surface the module exposes over request-reply.
type Service struct {
	registry *Registry
	log      *Log
	gate     *Gate
	clock    room.Clock
	reclaim  ReclaimScheduler
}

// NewService wires the room components over a store.
func NewService(store storage.Store, clock room.Clock, reclaim ReclaimScheduler) (*Service, error) {
	registry, err := NewRegistry(store, clock)
	if err != nil {
		return nil, err
	}
	log := NewLog(registry, reclaim)
	return &Service{
		registry: registry,
		log:      log,
		gate:     NewGate(registry, reclaim),
		clock:    clock,
		reclaim:  reclaim,
	}, nil
}

// CreateRoom provisions a room. A zero ttl selects the default lifetime.
func (s *Service) CreateRoom(ctx context.Context, name, passcode string, ttlMinutes int) (*room.Room, error) {
	return s.registry.Create(ctx, name, passcode, ttlMinutes)
}

// JoinRoom admits a display name into a room by id.
func (s *Service) JoinRoom(ctx context.Context, roomID, name, passcode string) (*room.Room, error) {
	return s.gate.Join(ctx, roomID, name, passcode)
}

// JoinRoomByName resolves a room by its case-insensitive name, then admits.
func (s *Service) JoinRoomByName(ctx context.Context, roomName, name, passcode string) (*room.Room, error) {
	rec, err := s.registry.FindByName(ctx, roomName)
	if err != nil {
		return nil, err
	}
	return s.gate.Join(ctx, rec.ID, name, passcode)
}

// SendMessage appends a user message to a room's log.
func (s *Service) SendMessage(ctx context.Context, roomID, sender, body string) (*room.Message, error) {
	if err := ValidateDisplayName(sender); err != nil {
		return nil, err
	}
	return s.log.Append(ctx, roomID, sender, body)
}

// ListMessages returns a room's log in ascending sequence order.
func (s *Service) ListMessages(ctx context.Context, roomID string) ([]room.Message, error) {
	return s.log.List(ctx, roomID)
}

// LeaveRoom removes an admission record. It reports whether anything was
// removed and never fails.
func (s *Service) LeaveRoom(ctx context.Context, roomID, name string) bool {
	return s.gate.Leave(ctx, roomID, name)
}

// TimeUntilExpiry reports how long a room has left. An expired room yields
// a zero duration, not an error, and is flagged for reclamation.
func (s *Service) TimeUntilExpiry(ctx context.Context, roomID string) (time.Duration, error) {
	rec, err := s.registry.Get(ctx, roomID)
	if err != nil {
		return 0, err
	}
	left := rec.TimeLeft(s.clock.Now())
	if left <= 0 {
		s.reclaim.Schedule(roomID)
		return 0, nil
	}
	return left, nil
}

// GetRoom returns a live room by id.
func (s *Service) GetRoom(ctx context.Context, roomID string) (*room.Room, error) {
	rec, err := s.registry.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !rec.Live(s.clock.Now()) {
		s.reclaim.Schedule(roomID)
		return nil, fmt.Errorf("%w: room %s", room.ErrRoomExpired, roomID)
	}
	return rec, nil
}

// ListRooms returns every live room. Expired records encountered along the
// way are flagged for reclamation and skipped.
func (s *Service) ListRooms(ctx context.Context) ([]*room.Room, error) {
	recs, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	live := recs[:0]
	for _, rec := range recs {
		if !rec.Live(now) {
			s.reclaim.Schedule(rec.ID)
			continue
		}
		live = append(live, rec)
	}
	return live, nil
}
