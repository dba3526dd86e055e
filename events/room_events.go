package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomCreatedEvent is emitted when a new ephemeral room is created.
type RoomCreatedEvent struct {
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	Gated     bool      `json:"gated"`
	ExpiresAt time.Time `json:"expires_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantJoinedEvent is emitted when a display name is admitted to a room.
type ParticipantJoinedEvent struct {
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantLeftEvent is emitted when an admission record is removed.
type ParticipantLeftEvent struct {
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// MessagePostedEvent is emitted after a message is appended to a room's log.
type MessagePostedEvent struct {
	RoomID    string    `json:"room_id"`
	Seq       int64     `json:"seq"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomReclaimedEvent is emitted when an expired room and its log are removed
// from storage.
type RoomReclaimedEvent struct {
	RoomID    string    `json:"room_id"`
	ExpiredAt time.Time `json:"expired_at"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the rooms domain.
var (
	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"rooms",
		"RoomCreated",
		"v1",
	)

	ParticipantJoinedV1 = helper.EventDefinition[ParticipantJoinedEvent](
		"rooms",
		"ParticipantJoined",
		"v1",
	)

	ParticipantLeftV1 = helper.EventDefinition[ParticipantLeftEvent](
		"rooms",
		"ParticipantLeft",
		"v1",
	)

	MessagePostedV1 = helper.EventDefinition[MessagePostedEvent](
		"rooms",
		"MessagePosted",
		"v1",
	)

	RoomReclaimedV1 = helper.EventDefinition[RoomReclaimedEvent](
		"reclaimer",
		"RoomReclaimed",
		"v1",
	)
)
