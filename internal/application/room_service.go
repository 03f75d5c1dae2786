package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

// RoomService orchestrates validation, authorization, and persistence for
// studio rooms.
type RoomService struct {
	rooms       persistence.RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms persistence.RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room persistence.Room, err error) {
	if s == nil || s.rooms == nil {
		err = fmt.Errorf("room service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom", "principal_id", params.Principal.AccountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	room = persistence.Room{
		ID:         s.idGenerator(),
		Name:       strings.TrimSpace(params.Input.Name),
		Capacity:   params.Input.Capacity,
		Location:   strings.TrimSpace(params.Input.Location),
		HourlyRate: params.Input.HourlyRate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err = s.rooms.CreateRoom(ctx, room); err != nil {
		err = mapRepoError(err)
		room = persistence.Room{}
		return
	}
	return
}

// UpdateRoom validates input and updates an existing room for administrators.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room persistence.Room, err error) {
	if s == nil || s.rooms == nil {
		err = fmt.Errorf("room service not configured")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.AccountID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	var existing persistence.Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	room = existing
	room.Name = strings.TrimSpace(params.Input.Name)
	room.Capacity = params.Input.Capacity
	room.Location = strings.TrimSpace(params.Input.Location)
	room.HourlyRate = params.Input.HourlyRate
	room.UpdatedAt = s.now()

	if err = s.rooms.UpdateRoom(ctx, room); err != nil {
		err = mapRepoError(err)
		room = persistence.Room{}
		return
	}
	return
}

// GetRoom retrieves a single room.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, roomID string) (persistence.Room, error) {
	if s == nil || s.rooms == nil {
		return persistence.Room{}, fmt.Errorf("room service not configured")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	return room, nil
}

// ListRooms returns the room catalog ordered by name.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal) ([]persistence.Room, error) {
	if s == nil || s.rooms == nil {
		return nil, fmt.Errorf("room service not configured")
	}
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})
	return rooms, nil
}

// DeleteRoom removes an existing room when requested by an administrator.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil || s.rooms == nil {
		return fmt.Errorf("room service not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.AccountID,
		"room_id", roomID,
	)
	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "room deleted")
	return nil
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if input.HourlyRate < 0 {
		vErr.add("hourly_rate", "hourly rate must not be negative")
	}
	return vErr
}
