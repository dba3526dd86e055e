package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/ephemeral-chat/domain/room"
)

// RoomsPort defines the interface other modules use to reach room
// operations. Errors carry their domain kind: errors.Is works against the
// room package sentinels on anything a port method returns.
type RoomsPort interface {
	CreateRoom(ctx context.Context, name, passcode string, ttlMinutes int) (*RoomView, error)
	JoinRoom(ctx context.Context, roomID, name, passcode string) (*RoomView, error)
	JoinRoomByName(ctx context.Context, roomName, name, passcode string) (*RoomView, error)
	SendMessage(ctx context.Context, roomID, sender, body string) (*room.Message, error)
	ListMessages(ctx context.Context, roomID string) ([]room.Message, error)
	LeaveRoom(ctx context.Context, roomID, name string) (bool, error)
	RoomTTL(ctx context.Context, roomID string) (time.Duration, string, error)
	GetRoom(ctx context.Context, roomID string) (*RoomView, error)
	ListRooms(ctx context.Context) ([]RoomView, error)
}

// RoomsAdapter implements RoomsPort using the service container.
type RoomsAdapter struct {
	container mono.ServiceContainer
}

// NewRoomsAdapter creates a new RoomsAdapter.
func NewRoomsAdapter(container mono.ServiceContainer) RoomsPort {
	if container == nil {
		panic("rooms: ServiceContainer is nil")
	}
	return &RoomsAdapter{container: container}
}

// call runs one request-reply round trip.
func (a *RoomsAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return fmt.Errorf("%s call failed: %w", service, err)
	}
	return nil
}

// CreateRoom provisions a room.
func (a *RoomsAdapter) CreateRoom(ctx context.Context, name, passcode string, ttlMinutes int) (*RoomView, error) {
	req := CreateRoomRequest{Name: name, Passcode: passcode, TTLMinutes: ttlMinutes}
	var resp CreateRoomResponse
	if err := a.call(ctx, ServiceCreateRoom, &req, &resp); err != nil {
		return nil, err
	}
	if err := ErrorFromCode(resp.Error, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Room, nil
}

// JoinRoom admits a display name into a room by id.
func (a *RoomsAdapter) JoinRoom(ctx context.Context, roomID, name, passcode string) (*RoomView, error) {
	req := JoinRoomRequest{RoomID: roomID, Name: name, Passcode: passcode}
	var resp JoinRoomResponse
	if err := a.call(ctx, ServiceJoinRoom, &req, &resp); err != nil {
		return nil, err
	}
	if err := ErrorFromCode(resp.Error, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Room, nil
}

// JoinRoomByName admits a display name into a room found by name.
func (a *RoomsAdapter) JoinRoomByName(ctx context.Context, roomName, name, passcode string) (*RoomView, error) {
	req := JoinRoomRequest{RoomName: roomName, Name: name, Passcode: passcode}
	var resp JoinRoomResponse
	if err := a.call(ctx, ServiceJoinRoom, &req, &resp); err != nil {
		return nil, err
	}
	if err := ErrorFromCode(resp.Error, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Room, nil
}

// SendMessage appends a user message to a room.
func (a *RoomsAdapter) SendMessage(ctx context.Context, roomID, sender, body string) (*room.Message, error) {
	req := SendMessageRequest{RoomID: roomID, Sender: sender, Body: body}
	var resp SendMessageResponse
	if err := a.call(ctx, ServiceSendMessage, &req, &resp); err != nil {
		return nil, err
	}
	if err := ErrorFromCode(resp.Error, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// ListMessages returns a room's log in ascending sequence order.
func (a *RoomsAdapter) ListMessages(ctx context.Context, roomID string) ([]room.Message, error) {
	req := ListMessagesRequest{RoomID: roomID}
	var resp ListMessagesResponse
	if err := a.call(ctx, ServiceListMessages, &req, &resp); err != nil {
		return nil, err
	}
	if err := ErrorFromCode(resp.Error, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// LeaveRoom removes an admission record.
func (a *RoomsAdapter) LeaveRoom(ctx context.Context, roomID, name string) (bool, error) {
	req := LeaveRoomRequest{RoomID: roomID, Name: name}
	var resp LeaveRoomResponse
	if err := a.call(ctx, ServiceLeaveRoom, &req, &resp); err != nil {
		return false, err
	}
	return resp.Left, nil
}

// RoomTTL returns a room's remaining lifetime and its display form.
func (a *RoomsAdapter) RoomTTL(ctx context.Context, roomID string) (time.Duration, string, error) {
	req := RoomTTLRequest{RoomID: roomID}
	var resp RoomTTLResponse
	if err := a.call(ctx, ServiceRoomTTL, &req, &resp); err != nil {
		return 0, "", err
	}
	if err := ErrorFromCode(resp.Error, resp.Msg); err != nil {
		return 0, "", err
	}
	return resp.Remaining, resp.Formatted, nil
}

// GetRoom returns a live room by id.
func (a *RoomsAdapter) GetRoom(ctx context.Context, roomID string) (*RoomView, error) {
	req := GetRoomRequest{RoomID: roomID}
	var resp GetRoomResponse
	if err := a.call(ctx, ServiceGetRoom, &req, &resp); err != nil {
		return nil, err
	}
	if err := ErrorFromCode(resp.Error, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Room, nil
}

// ListRooms returns every live room.
func (a *RoomsAdapter) ListRooms(ctx context.Context) ([]RoomView, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := a.call(ctx, ServiceListRooms, &req, &resp); err != nil {
		return nil, err
	}
	if err := ErrorFromCode(resp.Error, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}
