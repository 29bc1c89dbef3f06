package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultRoomColor is the display tag given to rooms created without one.
const DefaultRoomColor = "indigo"

// RoomRepository loads and replaces the whole room catalog.
type RoomRepository interface {
	LoadRooms(ctx context.Context) ([]Room, error)
	SaveRooms(ctx context.Context, rooms []Room) error
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       RoomRepository
	idGenerator func() string
	now         func() time.Time
	maxCapacity int
	events      *EventBroker
	logger      *slog.Logger

	mu sync.Mutex
}

// RoomServiceOption customizes a RoomService.
type RoomServiceOption func(*RoomService)

// WithMaxCapacity rejects rooms larger than limit. Zero disables the check.
func WithMaxCapacity(limit int) RoomServiceOption {
	return func(s *RoomService) { s.maxCapacity = limit }
}

// WithRoomEvents publishes room events to broker.
func WithRoomEvents(broker *EventBroker) RoomServiceOption {
	return func(s *RoomService) { s.events = broker }
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, idGenerator func() string, now func() time.Time, opts ...RoomServiceOption) *RoomService {
	return NewRoomServiceWithLogger(rooms, idGenerator, now, nil, opts...)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger, opts ...RoomServiceOption) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	s := &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for managers.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !params.Principal.Role.CanManageRooms() {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	input := normalizeRoomInput(params.Input)
	if vErr := s.validateRoomInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	room = Room{
		ID:       s.idGenerator(),
		Name:     input.Name,
		Location: input.Location,
		Capacity: input.Capacity,
		Notes:    input.Notes,
		Color:    input.Color,
	}
	if room.ID == "" {
		err = fmt.Errorf("id generator returned an empty id")
		return
	}
	if room.Color == "" {
		room.Color = DefaultRoomColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var rooms []Room
	rooms, err = s.rooms.LoadRooms(ctx)
	if err != nil {
		err = fmt.Errorf("load rooms: %w", err)
		return
	}
	if slices.ContainsFunc(rooms, func(r Room) bool { return r.ID == room.ID }) {
		err = ErrAlreadyExists
		return
	}

	rooms = append(slices.Clone(rooms), room)
	if err = s.rooms.SaveRooms(ctx, rooms); err != nil {
		err = fmt.Errorf("save rooms: %w", err)
		return
	}

	s.publish(EventRoomSaved, room, len(rooms))
	return
}

// UpdateRoom validates input and updates an existing room for managers.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room updated")
	}()

	if !params.Principal.Role.CanManageRooms() {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	input := normalizeRoomInput(params.Input)
	if vErr := s.validateRoomInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var rooms []Room
	rooms, err = s.rooms.LoadRooms(ctx)
	if err != nil {
		err = fmt.Errorf("load rooms: %w", err)
		return
	}

	index := slices.IndexFunc(rooms, func(r Room) bool { return r.ID == params.RoomID })
	if index < 0 {
		err = ErrNotFound
		return
	}

	updated := slices.Clone(rooms)
	room = updated[index]
	room.Name = input.Name
	room.Location = input.Location
	room.Capacity = input.Capacity
	room.Notes = input.Notes
	if input.Color != "" {
		room.Color = input.Color
	}
	updated[index] = room

	if err = s.rooms.SaveRooms(ctx, updated); err != nil {
		err = fmt.Errorf("save rooms: %w", err)
		return
	}

	s.publish(EventRoomSaved, room, len(updated))
	return
}

// DeleteRoom removes an existing room. Bookings for the room are left in place.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if !principal.Role.CanManageRooms() {
		return ErrUnauthorized
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	rooms, err := s.rooms.LoadRooms(ctx)
	if err != nil {
		err = fmt.Errorf("load rooms: %w", err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	index := slices.IndexFunc(rooms, func(r Room) bool { return r.ID == roomID })
	if index < 0 {
		logger.ErrorContext(ctx, "failed to delete room", "error", ErrNotFound, "error_kind", ErrorKind(ErrNotFound))
		return ErrNotFound
	}
	removed := rooms[index]
	remaining := slices.Delete(slices.Clone(rooms), index, index+1)

	if err := s.rooms.SaveRooms(ctx, remaining); err != nil {
		err = fmt.Errorf("save rooms: %w", err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.publish(EventRoomDeleted, removed, len(remaining))
	logger.InfoContext(ctx, "room deleted")
	return nil
}

// GetRoom returns a single room for any authenticated user.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, roomID string) (Room, error) {
	rooms, err := s.ListRooms(ctx, principal)
	if err != nil {
		return Room{}, err
	}
	for _, room := range rooms {
		if room.ID == roomID {
			return room, nil
		}
	}
	return Room{}, ErrNotFound
}

// ListRooms returns the catalog of rooms for any authenticated user, sorted by name.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	}()

	var raw []Room
	raw, err = s.rooms.LoadRooms(ctx)
	if err != nil {
		err = fmt.Errorf("load rooms: %w", err)
		return
	}

	rooms = slices.Clone(raw)
	sortRoomsByName(rooms)
	return
}

func (s *RoomService) publish(kind EventKind, room Room, total int) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{
		Kind:       kind,
		RoomID:     room.ID,
		Room:       &room,
		Total:      total,
		OccurredAt: s.now(),
	})
}

func (s *RoomService) validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Location == "" {
		vErr.add("location", "location is required")
	}
	switch {
	case input.Capacity <= 0:
		vErr.add("capacity", "capacity must be positive")
	case s.maxCapacity > 0 && input.Capacity > s.maxCapacity:
		vErr.add("capacity", fmt.Sprintf("capacity must not exceed %d", s.maxCapacity))
	}

	return vErr
}

func normalizeRoomInput(input RoomInput) RoomInput {
	return RoomInput{
		Name:     strings.TrimSpace(input.Name),
		Location: strings.TrimSpace(input.Location),
		Capacity: input.Capacity,
		Notes:    strings.TrimSpace(input.Notes),
		Color:    strings.ToLower(strings.TrimSpace(input.Color)),
	}
}

func sortRoomsByName(rooms []Room) {
	slices.SortFunc(rooms, func(a, b Room) int {
		if strings.EqualFold(a.Name, b.Name) {
			return strings.Compare(a.ID, b.ID)
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}
