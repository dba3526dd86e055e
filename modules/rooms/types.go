package rooms

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/ephemeral-chat/domain/room"
)

// Service names registered on the module's container.
const (
	ServiceCreateRoom   = "create-room"
	ServiceJoinRoom     = "join-room"
	ServiceSendMessage  = "send-message"
	ServiceListMessages = "list-messages"
	ServiceLeaveRoom    = "leave-room"
	ServiceRoomTTL      = "room-ttl"
	ServiceGetRoom      = "get-room"
	ServiceListRooms    = "list-rooms"
)

// MaxDisplayNameLength bounds participant display names.
const MaxDisplayNameLength = 50

// ValidateRoomName validates a room display name.
func ValidateRoomName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: room name is required", room.ErrValidation)
	}
	if utf8.RuneCountInString(name) > room.MaxRoomNameLength {
		return fmt.Errorf("%w: room name exceeds %d characters", room.ErrValidation, room.MaxRoomNameLength)
	}
	return nil
}

// ValidateTTLMinutes validates a requested room lifetime.
func ValidateTTLMinutes(ttl int) error {
	if ttl < room.MinTTLMinutes || ttl > room.MaxTTLMinutes {
		return fmt.Errorf("%w: ttl must be between %d and %d minutes",
			room.ErrValidation, room.MinTTLMinutes, room.MaxTTLMinutes)
	}
	return nil
}

// ValidateBody validates a message body.
func ValidateBody(body string) error {
	if body == "" {
		return fmt.Errorf("%w: message body is required", room.ErrValidation)
	}
	if utf8.RuneCountInString(body) > room.MaxMessageLength {
		return fmt.Errorf("%w: message body exceeds %d characters", room.ErrValidation, room.MaxMessageLength)
	}
	return nil
}

// ValidateDisplayName validates a participant display name. The System
// sentinel is reserved.
func ValidateDisplayName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: display name is required", room.ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: display name exceeds %d characters", room.ErrValidation, MaxDisplayNameLength)
	}
	if strings.EqualFold(name, room.SenderSystem) {
		return fmt.Errorf("%w: display name %q is reserved", room.ErrValidation, room.SenderSystem)
	}
	return nil
}

// RoomView is the wire representation of a room. The passcode hash never
// leaves the module; gating is exposed as a boolean.
type RoomView struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Gated        bool               `json:"gated"`
	CreatedAt    time.Time          `json:"created_at"`
	ExpiresAt    time.Time          `json:"expires_at"`
	Version      int64              `json:"version"`
	Participants []room.Participant `json:"participants"`
}

// NewRoomView converts a record to its wire form.
func NewRoomView(rec *room.Room) *RoomView {
	return &RoomView{
		ID:           rec.ID,
		Name:         rec.Name,
		Gated:        rec.HasPasscode(),
		CreatedAt:    rec.CreatedAt,
		ExpiresAt:    rec.ExpiresAt,
		Version:      rec.Version,
		Participants: rec.Participants,
	}
}

// CreateRoomRequest asks for a new room.
type CreateRoomRequest struct {
	Name       string `json:"name"`
	Passcode   string `json:"passcode,omitempty"`
	TTLMinutes int    `json:"ttl_minutes"`
}

// CreateRoomResponse returns the created room.
type CreateRoomResponse struct {
	Room  *RoomView `json:"room,omitempty"`
	Error string    `json:"error,omitempty"`
	Msg   string    `json:"message,omitempty"`
}

// JoinRoomRequest asks to admit a display name. Either RoomID or RoomName
// identifies the room; RoomID wins when both are set.
type JoinRoomRequest struct {
	RoomID   string `json:"room_id,omitempty"`
	RoomName string `json:"room_name,omitempty"`
	Name     string `json:"name"`
	Passcode string `json:"passcode,omitempty"`
}

// JoinRoomResponse returns the joined room.
type JoinRoomResponse struct {
	Room  *RoomView `json:"room,omitempty"`
	Error string    `json:"error,omitempty"`
	Msg   string    `json:"message,omitempty"`
}

// SendMessageRequest appends a user message.
type SendMessageRequest struct {
	RoomID string `json:"room_id"`
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// SendMessageResponse returns the appended message.
type SendMessageResponse struct {
	Message *room.Message `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
	Msg     string        `json:"msg,omitempty"`
}

// ListMessagesRequest asks for a room's ordered log.
type ListMessagesRequest struct {
	RoomID string `json:"room_id"`
}

// ListMessagesResponse returns the log in ascending sequence order.
type ListMessagesResponse struct {
	Messages []room.Message `json:"messages"`
	Error    string         `json:"error,omitempty"`
	Msg      string         `json:"msg,omitempty"`
}

// LeaveRoomRequest removes an admission record.
type LeaveRoomRequest struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// LeaveRoomResponse acknowledges a leave. Leaving never fails.
type LeaveRoomResponse struct {
	Left bool `json:"left"`
}

// RoomTTLRequest asks how long a room has left.
type RoomTTLRequest struct {
	RoomID string `json:"room_id"`
}

// RoomTTLResponse returns the remaining lifetime. Remaining is zero and
// Formatted is "Expired" once the expiry has passed.
type RoomTTLResponse struct {
	Remaining time.Duration `json:"remaining"`
	Formatted string        `json:"formatted"`
	Error     string        `json:"error,omitempty"`
	Msg       string        `json:"msg,omitempty"`
}

// GetRoomRequest asks for a single room.
type GetRoomRequest struct {
	RoomID string `json:"room_id"`
}

// GetRoomResponse returns the room.
type GetRoomResponse struct {
	Room  *RoomView `json:"room,omitempty"`
	Error string    `json:"error,omitempty"`
	Msg   string    `json:"msg,omitempty"`
}

// ListRoomsRequest asks for all live rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse returns every live room.
type ListRoomsResponse struct {
	Rooms []RoomView `json:"rooms"`
	Error string     `json:"error,omitempty"`
	Msg   string     `json:"msg,omitempty"`
}

// Wire error codes. The request-reply boundary serializes responses as JSON,
// so error kinds travel as codes and are rebuilt on the consuming side.
const (
	CodeValidation      = "validation_error"
	CodeNotFound        = "not_found"
	CodeRoomExpired     = "room_expired"
	CodeInvalidPasscode = "invalid_passcode"
	CodeNameTaken       = "name_taken"
	CodeConflict        = "conflict"
	CodeIDExhausted     = "id_exhausted"
	CodeInternal        = "internal_error"
)

// errorCode maps a domain error to its wire code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrValidation):
		return CodeValidation
	case errors.Is(err, room.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, room.ErrRoomExpired):
		return CodeRoomExpired
	case errors.Is(err, room.ErrInvalidPasscode):
		return CodeInvalidPasscode
	case errors.Is(err, room.ErrNameTaken):
		return CodeNameTaken
	case errors.Is(err, room.ErrConflict):
		return CodeConflict
	case errors.Is(err, room.ErrIDExhausted):
		return CodeIDExhausted
	default:
		return CodeInternal
	}
}

// ErrorFromCode rebuilds the domain error a wire code stands for.
func ErrorFromCode(code, msg string) error {
	var base error
	switch code {
	case "":
		return nil
	case CodeValidation:
		base = room.ErrValidation
	case CodeNotFound:
		base = room.ErrNotFound
	case CodeRoomExpired:
		base = room.ErrRoomExpired
	case CodeInvalidPasscode:
		base = room.ErrInvalidPasscode
	case CodeNameTaken:
		base = room.ErrNameTaken
	case CodeConflict:
		base = room.ErrConflict
	case CodeIDExhausted:
		base = room.ErrIDExhausted
	default:
		return errors.New(msg)
	}
	msg = strings.TrimPrefix(msg, base.Error()+": ")
	if msg == "" || msg == base.Error() {
		return base
	}
	return fmt.Errorf("%w: %s", base, msg)
}
