package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/ephemeral-chat/domain/room"
	"github.com/example/ephemeral-chat/events"
	"github.com/example/ephemeral-chat/modules/storage"
)

// Module exposes room lifecycle, admission and messaging over the service
// container and publishes domain events for each state change.
type Module struct {
	svc      *Service
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the rooms module over a store. The scheduler receives
// ids of rooms observed past their expiry.
func NewModule(store storage.Store, clock room.Clock, reclaim ReclaimScheduler, logger types.Logger) (*Module, error) {
	svc, err := NewService(store, clock, reclaim)
	if err != nil {
		return nil, fmt.Errorf("failed to build rooms service: %w", err)
	}
	return &Module{svc: svc, logger: logger}, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rooms"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.ParticipantJoinedV1.ToBase(),
		events.ParticipantLeftV1.ToBase(),
		events.MessagePostedV1.ToBase(),
	}
}

// Start initializes the rooms module.
func (m *Module) Start(ctx context.Context) error {
	m.logger.Info("Rooms module started")
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(ctx context.Context) error {
	m.logger.Info("Rooms module stopped")
	return nil
}

// Health reports module health.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if _, err := m.svc.ListRooms(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "room store unreachable",
			Details: map[string]any{"error": err.Error()},
		}
	}
	return mono.HealthStatus{Healthy: true, Message: "rooms module operational"}
}

// Service exposes the underlying service for in-process collaborators.
func (m *Module) Service() *Service {
	return m.svc
}

// RegisterServices registers this module's services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	handlers := map[string]func(context.Context, *mono.Msg) ([]byte, error){
		ServiceCreateRoom:   m.handleCreateRoom,
		ServiceJoinRoom:     m.handleJoinRoom,
		ServiceSendMessage:  m.handleSendMessage,
		ServiceListMessages: m.handleListMessages,
		ServiceLeaveRoom:    m.handleLeaveRoom,
		ServiceRoomTTL:      m.handleRoomTTL,
		ServiceGetRoom:      m.handleGetRoom,
		ServiceListRooms:    m.handleListRooms,
	}
	names := make([]string, 0, len(handlers))
	for name, handler := range handlers {
		if err := container.RegisterRequestReplyService(name, handler); err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
		names = append(names, name)
	}

	m.logger.Info("Registered room services", "count", len(names))
	return nil
}

// Service handler functions

func (m *Module) handleCreateRoom(ctx context.Context, msg *mono.Msg) ([]byte, error) {
	var req CreateRoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	rec, err := m.svc.CreateRoom(ctx, req.Name, req.Passcode, req.TTLMinutes)
	if err != nil {
		return json.Marshal(CreateRoomResponse{Error: errorCode(err), Msg: err.Error()})
	}

	if m.eventBus != nil {
		if err := events.RoomCreatedV1.Publish(m.eventBus, events.RoomCreatedEvent{
			RoomID:    rec.ID,
			RoomName:  rec.Name,
			Gated:     rec.HasPasscode(),
			ExpiresAt: rec.ExpiresAt,
			Timestamp: rec.CreatedAt,
		}, nil); err != nil {
			m.logger.Warn("Failed to publish RoomCreated event", "error", err)
		}
	}
	m.logger.Info("Room created", "roomID", rec.ID, "name", rec.Name, "expiresAt", rec.ExpiresAt)
	return json.Marshal(CreateRoomResponse{Room: NewRoomView(rec)})
}

func (m *Module) handleJoinRoom(ctx context.Context, msg *mono.Msg) ([]byte, error) {
	var req JoinRoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	var (
		rec *room.Room
		err error
	)
	if req.RoomID != "" {
		rec, err = m.svc.JoinRoom(ctx, req.RoomID, req.Name, req.Passcode)
	} else {
		rec, err = m.svc.JoinRoomByName(ctx, req.RoomName, req.Name, req.Passcode)
	}
	if err != nil {
		return json.Marshal(JoinRoomResponse{Error: errorCode(err), Msg: err.Error()})
	}

	if m.eventBus != nil {
		if err := events.ParticipantJoinedV1.Publish(m.eventBus, events.ParticipantJoinedEvent{
			RoomID:    rec.ID,
			Name:      req.Name,
			Timestamp: time.Now(),
		}, nil); err != nil {
			m.logger.Warn("Failed to publish ParticipantJoined event", "error", err)
		}
	}
	m.logger.Info("Participant joined", "roomID", rec.ID, "name", req.Name)
	return json.Marshal(JoinRoomResponse{Room: NewRoomView(rec)})
}

func (m *Module) handleSendMessage(ctx context.Context, msg *mono.Msg) ([]byte, error) {
	var req SendMessageRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	posted, err := m.svc.SendMessage(ctx, req.RoomID, req.Sender, req.Body)
	if err != nil {
		return json.Marshal(SendMessageResponse{Error: errorCode(err), Msg: err.Error()})
	}

	if m.eventBus != nil {
		if err := events.MessagePostedV1.Publish(m.eventBus, events.MessagePostedEvent{
			RoomID:    posted.RoomID,
			Seq:       posted.Seq,
			Sender:    posted.Sender,
			Body:      posted.Body,
			Timestamp: posted.Timestamp,
		}, nil); err != nil {
			m.logger.Warn("Failed to publish MessagePosted event", "error", err)
		}
	}
	m.logger.Debug("Message posted", "roomID", posted.RoomID, "seq", posted.Seq)
	return json.Marshal(SendMessageResponse{Message: posted})
}

func (m *Module) handleListMessages(ctx context.Context, msg *mono.Msg) ([]byte, error) {
	var req ListMessagesRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	msgs, err := m.svc.ListMessages(ctx, req.RoomID)
	if err != nil {
		return json.Marshal(ListMessagesResponse{Error: errorCode(err), Msg: err.Error()})
	}
	return json.Marshal(ListMessagesResponse{Messages: msgs})
}

func (m *Module) handleLeaveRoom(ctx context.Context, msg *mono.Msg) ([]byte, error) {
	var req LeaveRoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	left := m.svc.LeaveRoom(ctx, req.RoomID, req.Name)
	if left {
		if m.eventBus != nil {
			if err := events.ParticipantLeftV1.Publish(m.eventBus, events.ParticipantLeftEvent{
				RoomID:    req.RoomID,
				Name:      req.Name,
				Timestamp: time.Now(),
			}, nil); err != nil {
				m.logger.Warn("Failed to publish ParticipantLeft event", "error", err)
			}
		}
		m.logger.Info("Participant left", "roomID", req.RoomID, "name", req.Name)
	}
	return json.Marshal(LeaveRoomResponse{Left: left})
}

func (m *Module) handleRoomTTL(ctx context.Context, msg *mono.Msg) ([]byte, error) {
	var req RoomTTLRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	left, err := m.svc.TimeUntilExpiry(ctx, req.RoomID)
	if err != nil {
		return json.Marshal(RoomTTLResponse{Error: errorCode(err), Msg: err.Error()})
	}
	return json.Marshal(RoomTTLResponse{
		Remaining: left,
		Formatted: room.FormatTimeLeft(left),
	})
}

func (m *Module) handleGetRoom(ctx context.Context, msg *mono.Msg) ([]byte, error) {
	var req GetRoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	rec, err := m.svc.GetRoom(ctx, req.RoomID)
	if err != nil {
		return json.Marshal(GetRoomResponse{Error: errorCode(err), Msg: err.Error()})
	}
	return json.Marshal(GetRoomResponse{Room: NewRoomView(rec)})
}

func (m *Module) handleListRooms(ctx context.Context, msg *mono.Msg) ([]byte, error) {
	recs, err := m.svc.ListRooms(ctx)
	if err != nil {
		return json.Marshal(ListRoomsResponse{Error: errorCode(err), Msg: err.Error()})
	}
	views := make([]RoomView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, *NewRoomView(rec))
	}
	return json.Marshal(ListRoomsResponse{Rooms: views})
}
