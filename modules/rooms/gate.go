package rooms

import (
	"context"
	"fmt"
	"time"

	"github.com/example/ephemeral-chat/domain/room"
)

// Gate handles admission: joining a room against its passcode and leaving.
// The name-taken check runs inside the admission mutator so concurrent
// joins with the same display name can never both succeed. Membership
// changes and their system messages land in a single versioned write.
type Gate struct {
	registry *Registry
	clock    room.Clock
	reclaim  ReclaimScheduler
}

// NewGate creates a session gate over a registry.
func NewGate(registry *Registry, reclaim ReclaimScheduler) *Gate {
	return &Gate{
		registry: registry,
		clock:    registry.Clock(),
		reclaim:  reclaim,
	}
}

// Join admits a display name into a room. The passcode is compared against
// the stored hash once up front; the hash is immutable for the room's
// lifetime so the check need not sit inside the retry loop. A passcode sent
// to an ungated room is ignored.
func (g *Gate) Join(ctx context.Context, roomID, name, passcode string) (*room.Room, error) {
	if err := ValidateDisplayName(name); err != nil {
		return nil, err
	}

	rec, err := g.registry.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !rec.Live(g.clock.Now()) {
		g.reclaim.Schedule(roomID)
		return nil, fmt.Errorf("%w: room %s", room.ErrRoomExpired, roomID)
	}
	if rec.HasPasscode() && !g.registry.Hasher().Verify(passcode, rec.PasscodeHash) {
		return nil, fmt.Errorf("%w: wrong passcode for room %s", room.ErrInvalidPasscode, roomID)
	}

	updated, err := g.registry.Apply(ctx, roomID, func(rec *room.Room) error {
		now := g.clock.Now()
		if !rec.Live(now) {
			return fmt.Errorf("%w: room %s", room.ErrRoomExpired, roomID)
		}
		if rec.HasParticipant(name) {
			return fmt.Errorf("%w: %q is already in room %s", room.ErrNameTaken, name, roomID)
		}
		rec.Participants = append(rec.Participants, room.Participant{
			Name:     name,
			JoinedAt: now,
		})
		appendSystemMessage(rec, name+" joined the room", now)
		return nil
	})
	if err != nil {
		if isExpired(err) {
			g.reclaim.Schedule(roomID)
		}
		return nil, err
	}
	return updated, nil
}

// Leave removes a display name from a room. It never fails: unknown rooms,
// expired rooms and names that were never admitted are all no-ops. The
// returned flag reports whether an admission record was actually removed.
func (g *Gate) Leave(ctx context.Context, roomID, name string) bool {
	if name == "" {
		return false
	}
	removed := false
	_, err := g.registry.Apply(ctx, roomID, func(rec *room.Room) error {
		removed = false
		now := g.clock.Now()
		if !rec.Live(now) {
			g.reclaim.Schedule(roomID)
			return errNoChange
		}
		if !rec.RemoveParticipant(name) {
			return errNoChange
		}
		removed = true
		appendSystemMessage(rec, name+" left the room", now)
		return nil
	})
	if err != nil {
		return false
	}
	return removed
}

// appendSystemMessage allocates the next sequence number and appends a
// System message inside a mutator, so it shares the caller's version bump.
func appendSystemMessage(rec *room.Room, body string, now time.Time) {
	rec.NextSeq++
	rec.Messages = append(rec.Messages, room.Message{
		Seq:       rec.NextSeq,
		RoomID:    rec.ID,
		Sender:    room.SenderSystem,
		Body:      body,
		Timestamp: now,
	})
}
