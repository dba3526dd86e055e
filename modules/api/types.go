package api

import (
	"time"

	"github.com/example/ephemeral-chat/modules/rooms"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// CreateRoomRequest is the body of POST /api/v1/rooms.
type CreateRoomRequest struct {
	Name       string `json:"name"`
	Passcode   string `json:"passcode,omitempty"`
	TTLMinutes int    `json:"ttl_minutes,omitempty"`
}

// JoinRoomRequest is the body of POST /api/v1/rooms/:id/join.
type JoinRoomRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode,omitempty"`
}

// JoinByNameRequest is the body of POST /api/v1/rooms/join.
type JoinByNameRequest struct {
	RoomName string `json:"room_name"`
	Name     string `json:"name"`
	Passcode string `json:"passcode,omitempty"`
}

// SendMessageRequest is the body of POST /api/v1/rooms/:id/messages.
type SendMessageRequest struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// LeaveRoomRequest is the body of POST /api/v1/rooms/:id/leave.
type LeaveRoomRequest struct {
	Name string `json:"name"`
}

// RoomResponse is the JSON form of a room.
type RoomResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Gated        bool      `json:"gated"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Participants []string  `json:"participants"`
}

// newRoomResponse flattens a room view for the wire.
func newRoomResponse(view *rooms.RoomView) RoomResponse {
	names := make([]string, 0, len(view.Participants))
	for _, p := range view.Participants {
		names = append(names, p.Name)
	}
	return RoomResponse{
		ID:           view.ID,
		Name:         view.Name,
		Gated:        view.Gated,
		CreatedAt:    view.CreatedAt,
		ExpiresAt:    view.ExpiresAt,
		Participants: names,
	}
}

// RoomListResponse is returned by GET /api/v1/rooms.
type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}

// MessageResponse is the JSON form of a message.
type MessageResponse struct {
	Seq       int64     `json:"seq"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	System    bool      `json:"system"`
}

// MessageListResponse is returned by GET /api/v1/rooms/:id/messages.
type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// TTLResponse is returned by GET /api/v1/rooms/:id/ttl.
type TTLResponse struct {
	RemainingSeconds int64  `json:"remaining_seconds"`
	Formatted        string `json:"formatted"`
}

// LeaveRoomResponse is returned by POST /api/v1/rooms/:id/leave.
type LeaveRoomResponse struct {
	Left bool `json:"left"`
}
