package rooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/ephemeral-chat/domain/room"
)

func isExpired(err error) bool {
	return errors.Is(err, room.ErrRoomExpired)
}

// Log is the append-only, per-room ordered message log. Sequence numbers
// are allocated inside the same compare-and-swap that persists the message,
// so they are dense and strictly increasing per room.
type Log struct {
	registry *Registry
	clock    room.Clock
	reclaim  ReclaimScheduler
}

// NewLog creates a conversation log over a registry.
func NewLog(registry *Registry, reclaim ReclaimScheduler) *Log {
	return &Log{
		registry: registry,
		clock:    registry.Clock(),
		reclaim:  reclaim,
	}
}

// Append adds a message to a room's log. Liveness is re-checked inside the
// mutator so an expired room can never gain a message, even when the expiry
// lands between the caller's read and the write.
func (l *Log) Append(ctx context.Context, roomID, sender, body string) (*room.Message, error) {
	if sender == "" {
		return nil, fmt.Errorf("%w: sender is required", room.ErrValidation)
	}
	if err := ValidateBody(body); err != nil {
		return nil, err
	}

	var msg room.Message
	_, err := l.registry.Apply(ctx, roomID, func(rec *room.Room) error {
		now := l.clock.Now()
		if !rec.Live(now) {
			return fmt.Errorf("%w: room %s", room.ErrRoomExpired, roomID)
		}
		rec.NextSeq++
		msg = room.Message{
			Seq:       rec.NextSeq,
			RoomID:    rec.ID,
			Sender:    sender,
			Body:      body,
			Timestamp: now,
		}
		rec.Messages = append(rec.Messages, msg)
		return nil
	})
	if err != nil {
		if isExpired(err) {
			l.reclaim.Schedule(roomID)
		}
		return nil, err
	}
	return &msg, nil
}

// List returns a room's messages in ascending sequence order. Reading from
// an expired room fails and flags the room for reclamation.
func (l *Log) List(ctx context.Context, roomID string) ([]room.Message, error) {
	rec, err := l.registry.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !rec.Live(l.clock.Now()) {
		l.reclaim.Schedule(roomID)
		return nil, fmt.Errorf("%w: room %s", room.ErrRoomExpired, roomID)
	}
	return rec.Messages, nil
}
