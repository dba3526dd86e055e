package room

import (
	"fmt"
	"strings"
	"time"
)

// SenderSystem is the reserved sender label for system messages.
// Participants can never claim it as a display name.
const SenderSystem = "System"

// Validation bounds for room and message fields.
const (
	MaxRoomNameLength = 100
	MaxMessageLength  = 500
	MinTTLMinutes     = 1
	MaxTTLMinutes     = 1440
	DefaultTTLMinutes = 30
)

// Message is a single log entry in a room. Messages are immutable once
// appended; ordering within a room is given by Seq, which is assigned
// atomically with the owning room's version bump.
type Message struct {
	Seq       int64     `json:"seq"`
	RoomID    string    `json:"room_id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// IsSystem reports whether the message was emitted by the room itself
// rather than a participant.
func (m Message) IsSystem() bool {
	return m.Sender == SenderSystem
}

// Participant is an admission record: a display name plus the time it was
// admitted. Display names are unique per live room, compared case-insensitively.
type Participant struct {
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// Room is the persisted unit: metadata, the admitted participant set and the
// full message log live in one record so a single compare-and-swap covers
// every mutation. Version increases by exactly one on every successful write.
type Room struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	PasscodeHash string        `json:"passcode_hash,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	ExpiresAt    time.Time     `json:"expires_at"`
	Version      int64         `json:"version"`
	NextSeq      int64         `json:"next_seq"`
	Participants []Participant `json:"participants"`
	Messages     []Message     `json:"messages"`
}

// Live reports whether the room has not yet expired at the given instant.
func (r *Room) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// HasPasscode reports whether the room is passcode gated.
func (r *Room) HasPasscode() bool {
	return r.PasscodeHash != ""
}

// HasParticipant reports whether a display name is already admitted,
// compared case-insensitively.
func (r *Room) HasParticipant(name string) bool {
	for _, p := range r.Participants {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// RemoveParticipant deletes the admission record matching the name
// case-insensitively. It reports whether a record was removed.
func (r *Room) RemoveParticipant(name string) bool {
	for i, p := range r.Participants {
		if strings.EqualFold(p.Name, name) {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// TimeLeft returns the duration until expiry, or zero if the room has
// already expired.
func (r *Room) TimeLeft(now time.Time) time.Duration {
	if !r.Live(now) {
		return 0
	}
	return r.ExpiresAt.Sub(now)
}

// Clone returns a deep copy so callers can mutate freely without aliasing
// stored state.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Participants = make([]Participant, len(r.Participants))
	copy(cp.Participants, r.Participants)
	cp.Messages = make([]Message, len(r.Messages))
	copy(cp.Messages, r.Messages)
	return &cp
}

// FormatTimeLeft renders a remaining duration as "2h 5m", "45m" or
// "Expired" for presentation code.
func FormatTimeLeft(d time.Duration) string {
	if d <= 0 {
		return "Expired"
	}
	mins := int(d / time.Minute)
	hours := mins / 60
	mins = mins % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
