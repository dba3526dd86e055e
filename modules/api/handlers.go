package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/ephemeral-chat/domain/room"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// REST API v1
	api := m.app.Group("/api/v1")

	// Room lifecycle
	api.Get("/rooms", m.listRooms)
	api.Post("/rooms", m.createRoom)
	api.Get("/rooms/:id", m.getRoom)
	api.Get("/rooms/:id/ttl", m.roomTTL)

	// Admission
	api.Post("/rooms/join", m.joinRoomByName)
	api.Post("/rooms/:id/join", m.joinRoom)
	api.Post("/rooms/:id/leave", m.leaveRoom)

	// Messaging
	api.Get("/rooms/:id/messages", m.listMessages)
	api.Post("/rooms/:id/messages", m.sendMessage)
}

// domainError maps a domain error to an HTTP status and error code.
func domainError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, room.ErrValidation):
		status, code = fiber.StatusBadRequest, "validation_error"
	case errors.Is(err, room.ErrNotFound):
		status, code = fiber.StatusNotFound, "not_found"
	case errors.Is(err, room.ErrRoomExpired):
		status, code = fiber.StatusGone, "room_expired"
	case errors.Is(err, room.ErrInvalidPasscode):
		status, code = fiber.StatusForbidden, "invalid_passcode"
	case errors.Is(err, room.ErrNameTaken):
		status, code = fiber.StatusConflict, "name_taken"
	case errors.Is(err, room.ErrConflict):
		status, code = fiber.StatusConflict, "conflict"
	case errors.Is(err, room.ErrIDExhausted):
		status, code = fiber.StatusServiceUnavailable, "id_exhausted"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request body",
	})
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	views, err := m.rooms.ListRooms(c.UserContext())
	if err != nil {
		return domainError(c, err)
	}

	response := RoomListResponse{
		Rooms: make([]RoomResponse, 0, len(views)),
	}
	for i := range views {
		response.Rooms = append(response.Rooms, newRoomResponse(&views[i]))
	}
	return c.JSON(response)
}

// createRoom handles POST /api/v1/rooms.
func (m *APIModule) createRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	view, err := m.rooms.CreateRoom(c.UserContext(), req.Name, req.Passcode, req.TTLMinutes)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newRoomResponse(view))
}

// getRoom handles GET /api/v1/rooms/:id.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	view, err := m.rooms.GetRoom(c.UserContext(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(newRoomResponse(view))
}

// roomTTL handles GET /api/v1/rooms/:id/ttl.
func (m *APIModule) roomTTL(c *fiber.Ctx) error {
	remaining, formatted, err := m.rooms.RoomTTL(c.UserContext(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(TTLResponse{
		RemainingSeconds: int64(remaining.Seconds()),
		Formatted:        formatted,
	})
}

// joinRoom handles POST /api/v1/rooms/:id/join.
func (m *APIModule) joinRoom(c *fiber.Ctx) error {
	var req JoinRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	view, err := m.rooms.JoinRoom(c.UserContext(), c.Params("id"), req.Name, req.Passcode)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(newRoomResponse(view))
}

// joinRoomByName handles POST /api/v1/rooms/join.
func (m *APIModule) joinRoomByName(c *fiber.Ctx) error {
	var req JoinByNameRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	view, err := m.rooms.JoinRoomByName(c.UserContext(), req.RoomName, req.Name, req.Passcode)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(newRoomResponse(view))
}

// leaveRoom handles POST /api/v1/rooms/:id/leave.
func (m *APIModule) leaveRoom(c *fiber.Ctx) error {
	var req LeaveRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	left, err := m.rooms.LeaveRoom(c.UserContext(), c.Params("id"), req.Name)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(LeaveRoomResponse{Left: left})
}

// listMessages handles GET /api/v1/rooms/:id/messages.
func (m *APIModule) listMessages(c *fiber.Ctx) error {
	msgs, err := m.rooms.ListMessages(c.UserContext(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}

	response := MessageListResponse{
		Messages: make([]MessageResponse, 0, len(msgs)),
	}
	for _, msg := range msgs {
		response.Messages = append(response.Messages, MessageResponse{
			Seq:       msg.Seq,
			Sender:    msg.Sender,
			Body:      msg.Body,
			Timestamp: msg.Timestamp,
			System:    msg.IsSystem(),
		})
	}
	return c.JSON(response)
}

// sendMessage handles POST /api/v1/rooms/:id/messages.
func (m *APIModule) sendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	msg, err := m.rooms.SendMessage(c.UserContext(), c.Params("id"), req.Sender, req.Body)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(MessageResponse{
		Seq:       msg.Seq,
		Sender:    msg.Sender,
		Body:      msg.Body,
		Timestamp: msg.Timestamp,
		System:    msg.IsSystem(),
	})
}
