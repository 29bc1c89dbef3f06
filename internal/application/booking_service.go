package application

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/example/room-scheduler/internal/scheduler"
)

const dateLayout = "2006-01-02"

// BookingRepository loads and replaces the whole booking collection.
type BookingRepository interface {
	LoadBookings(ctx context.Context) ([]Booking, error)
	SaveBookings(ctx context.Context, bookings []Booking) error
}

// BookingService validates, conflict-checks and persists bookings, and renders the day calendar.
type BookingService struct {
	bookings    BookingRepository
	rooms       RoomRepository
	idGenerator func() string
	now         func() time.Time
	window      scheduler.Window
	events      *EventBroker
	cache       *scheduleCache
	logger      *slog.Logger

	// mu serializes the load-check-save cycle of mutations.
	mu sync.Mutex
}

// BookingServiceOption customizes a BookingService.
type BookingServiceOption func(*BookingService)

// WithWindow sets the business-hours window used by DaySchedule.
func WithWindow(window scheduler.Window) BookingServiceOption {
	return func(s *BookingService) { s.window = window }
}

// WithEventBroker publishes booking events to broker. Room events on the same broker
// invalidate the day calendar cache.
func WithEventBroker(broker *EventBroker) BookingServiceOption {
	return func(s *BookingService) { s.events = broker }
}

// WithScheduleCacheTTL overrides how long computed day calendars are reused.
func WithScheduleCacheTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) { s.cache = newScheduleCache(ttl, 0, s.now) }
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(bookings BookingRepository, rooms RoomRepository, idGenerator func() string, now func() time.Time, opts ...BookingServiceOption) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, idGenerator, now, nil, opts...)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, rooms RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger, opts ...BookingServiceOption) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	s := &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		idGenerator: idGenerator,
		now:         now,
		window:      scheduler.DefaultWindow(),
		logger:      defaultLogger(logger),
	}
	s.cache = newScheduleCache(0, 0, now)
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = NewEventBroker()
	}
	s.events.Subscribe(func(Event) { s.cache.Invalidate() })
	return s
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Window returns the business-hours window used for layout.
func (s *BookingService) Window() scheduler.Window {
	return s.window
}

// Subscribe registers observer for booking and room mutations and returns the unsubscribe function.
func (s *BookingService) Subscribe(observer Observer) func() {
	if s == nil {
		return func() {}
	}
	return s.events.Subscribe(observer)
}

// SaveBooking creates or updates a booking.
//
// Checks run in a fixed order: missing fields, then the time range, then conflicts with
// other bookings of the same room and date. A rejected booking leaves the store untouched.
// When the id matches a stored booking it is replaced in place and keeps its CreatedAt;
// otherwise the booking is appended with CreatedAt set to now.
func (s *BookingService) SaveBooking(ctx context.Context, params SaveBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	input := normalizeBookingInput(params.Input)
	logger := s.loggerWith(ctx, "SaveBooking",
		"principal_id", params.Principal.UserID,
		"room_id", input.RoomID,
		"date", input.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking saved")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	if vErr := validateBookingInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing []Booking
	existing, err = s.bookings.LoadBookings(ctx)
	if err != nil {
		err = fmt.Errorf("load bookings: %w", err)
		return
	}

	candidate := Booking{
		ID:            input.ID,
		RoomID:        input.RoomID,
		Date:          input.Date,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		RequesterName: input.RequesterName,
		Description:   input.Description,
	}

	slots := make([]scheduler.Booking, len(existing))
	for i, b := range existing {
		slots[i] = b.slot()
	}
	conflict, found, cErr := scheduler.FindConflict(slots, candidate.slot())
	if cErr != nil {
		// The candidate was validated above, so this is a stored booking with a bad time.
		err = fmt.Errorf("check conflicts: %w", cErr)
		return
	}
	if found {
		err = &ConflictError{
			BookingID:     input.ID,
			WithBookingID: conflict.WithBookingID,
			RoomID:        conflict.RoomID,
			Date:          conflict.Date,
		}
		return
	}

	updated := slices.Clone(existing)
	index := -1
	if candidate.ID != "" {
		index = slices.IndexFunc(updated, func(b Booking) bool { return b.ID == candidate.ID })
	}
	if index >= 0 {
		candidate.CreatedAt = updated[index].CreatedAt
		updated[index] = candidate
	} else {
		if candidate.ID == "" {
			candidate.ID = s.idGenerator()
			if candidate.ID == "" {
				err = fmt.Errorf("id generator returned an empty id")
				return
			}
		}
		candidate.CreatedAt = s.now().UnixMilli()
		updated = append(updated, candidate)
	}

	if err = s.bookings.SaveBookings(ctx, updated); err != nil {
		err = fmt.Errorf("save bookings: %w", err)
		return
	}

	booking = candidate
	saved := candidate
	s.events.Publish(Event{
		Kind:       EventBookingSaved,
		BookingID:  saved.ID,
		RoomID:     saved.RoomID,
		Date:       saved.Date,
		Booking:    &saved,
		Total:      len(updated),
		OccurredAt: s.now(),
	})
	return
}

// DeleteBooking removes the booking with bookingID. Deleting an unknown id succeeds
// without writing.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}

	bookingID = strings.TrimSpace(bookingID)
	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)
	removed := false
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("removed", removed).InfoContext(ctx, "booking deleted")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing []Booking
	existing, err = s.bookings.LoadBookings(ctx)
	if err != nil {
		err = fmt.Errorf("load bookings: %w", err)
		return
	}

	var target Booking
	remaining := make([]Booking, 0, len(existing))
	for _, b := range existing {
		if b.ID == bookingID {
			target = b
			removed = true
			continue
		}
		remaining = append(remaining, b)
	}
	if !removed {
		return
	}

	if err = s.bookings.SaveBookings(ctx, remaining); err != nil {
		err = fmt.Errorf("save bookings: %w", err)
		return
	}

	s.events.Publish(Event{
		Kind:       EventBookingDeleted,
		BookingID:  target.ID,
		RoomID:     target.RoomID,
		Date:       target.Date,
		Booking:    &target,
		Total:      len(remaining),
		OccurredAt: s.now(),
	})
	return
}

// GetBooking returns a single booking.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if !principal.Authenticated() {
		return Booking{}, ErrUnauthorized
	}
	if s.bookings == nil {
		return Booking{}, ErrNotFound
	}

	bookings, err := s.bookings.LoadBookings(ctx)
	if err != nil {
		return Booking{}, fmt.Errorf("load bookings: %w", err)
	}
	for _, b := range bookings {
		if b.ID == bookingID {
			return b, nil
		}
	}
	return Booking{}, ErrNotFound
}

// ListBookings returns bookings matching params, newest date and start time first.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (bookings []Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", params.Principal.UserID,
		"date", params.Date,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("count", len(bookings)).DebugContext(ctx, "bookings listed")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if s.bookings == nil {
		return nil, nil
	}

	var all []Booking
	all, err = s.bookings.LoadBookings(ctx)
	if err != nil {
		err = fmt.Errorf("load bookings: %w", err)
		return
	}

	query := strings.ToLower(strings.TrimSpace(params.Query))
	roomNames := map[string]string{}
	if query != "" && s.rooms != nil {
		var rooms []Room
		rooms, err = s.rooms.LoadRooms(ctx)
		if err != nil {
			err = fmt.Errorf("load rooms: %w", err)
			return
		}
		for _, r := range rooms {
			roomNames[r.ID] = strings.ToLower(r.Name)
		}
	}

	date := strings.TrimSpace(params.Date)
	roomID := strings.TrimSpace(params.RoomID)
	bookings = make([]Booking, 0, len(all))
	for _, b := range all {
		if date != "" && b.Date != date {
			continue
		}
		if roomID != "" && b.RoomID != roomID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(b.RequesterName), query) &&
			!strings.Contains(strings.ToLower(b.Description), query) &&
			!strings.Contains(roomNames[b.RoomID], query) {
			continue
		}
		bookings = append(bookings, b)
	}

	slices.SortStableFunc(bookings, func(a, b Booking) int {
		return cmp.Or(
			cmp.Compare(b.Date, a.Date),
			cmp.Compare(b.StartTime, a.StartTime),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return
}

// DaySchedule lays out the bookings of date on the business-hours window, one row per room.
func (s *BookingService) DaySchedule(ctx context.Context, principal Principal, date string) (schedule DaySchedule, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	date = strings.TrimSpace(date)
	logger := s.loggerWith(ctx, "DaySchedule",
		"principal_id", principal.UserID,
		"date", date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build day schedule", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if _, pErr := time.Parse(dateLayout, date); pErr != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must use YYYY-MM-DD")
		err = vErr
		return
	}
	if err = s.window.Validate(); err != nil {
		return
	}

	if cached, ok := s.cache.Get(date); ok {
		return cached, nil
	}
	generation := s.cache.Generation()

	var rooms []Room
	if s.rooms != nil {
		rooms, err = s.rooms.LoadRooms(ctx)
		if err != nil {
			err = fmt.Errorf("load rooms: %w", err)
			return
		}
	}
	var bookings []Booking
	if s.bookings != nil {
		bookings, err = s.bookings.LoadBookings(ctx)
		if err != nil {
			err = fmt.Errorf("load bookings: %w", err)
			return
		}
	}

	sortRoomsByName(rooms)
	byRoom := make(map[string][]PlacedBooking, len(rooms))
	for _, b := range bookings {
		if b.Date != date {
			continue
		}
		placement, lErr := scheduler.Layout(b.StartTime, b.EndTime, s.window)
		if lErr != nil {
			logger.WarnContext(ctx, "skipping booking with malformed time", "booking_id", b.ID, "error", lErr)
			continue
		}
		byRoom[b.RoomID] = append(byRoom[b.RoomID], PlacedBooking{Booking: b, Placement: placement})
	}

	schedule = DaySchedule{
		Date:      date,
		Window:    s.window,
		HourMarks: s.window.HourMarks(),
		Rooms:     make([]RoomSchedule, 0, len(rooms)),
	}
	for _, room := range rooms {
		placed := byRoom[room.ID]
		slices.SortFunc(placed, func(a, b PlacedBooking) int {
			return cmp.Or(
				cmp.Compare(a.Booking.StartTime, b.Booking.StartTime),
				cmp.Compare(a.Booking.ID, b.Booking.ID),
			)
		})
		schedule.Rooms = append(schedule.Rooms, RoomSchedule{Room: room, Bookings: placed})
	}

	s.cache.Store(date, schedule, generation)
	return
}

// Audit inspects the stored bookings for overlaps, unknown rooms and unparseable times.
func (s *BookingService) Audit(ctx context.Context, principal Principal) (report AuditReport, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Audit", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "audit failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"conflicts", len(report.Conflicts),
			"orphaned", len(report.OrphanedBookings),
			"malformed", len(report.MalformedBookings),
		).InfoContext(ctx, "audit completed")
	}()

	if !principal.Role.CanManageRooms() {
		err = ErrUnauthorized
		return
	}
	if s.bookings == nil {
		return
	}

	var bookings []Booking
	bookings, err = s.bookings.LoadBookings(ctx)
	if err != nil {
		err = fmt.Errorf("load bookings: %w", err)
		return
	}

	known := map[string]bool{}
	if s.rooms != nil {
		var rooms []Room
		rooms, err = s.rooms.LoadRooms(ctx)
		if err != nil {
			err = fmt.Errorf("load rooms: %w", err)
			return
		}
		for _, r := range rooms {
			known[r.ID] = true
		}
	}

	slots := make([]scheduler.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !known[b.RoomID] {
			report.OrphanedBookings = append(report.OrphanedBookings, b)
		}
		if _, sErr := scheduler.ParseTimeToMinutes(b.StartTime); sErr != nil {
			report.MalformedBookings = append(report.MalformedBookings, b)
			continue
		}
		if _, eErr := scheduler.ParseTimeToMinutes(b.EndTime); eErr != nil {
			report.MalformedBookings = append(report.MalformedBookings, b)
			continue
		}
		slots = append(slots, b.slot())
	}
	report.Conflicts = scheduler.DetectConflicts(slots)
	return
}

func normalizeBookingInput(input BookingInput) BookingInput {
	return BookingInput{
		ID:            strings.TrimSpace(input.ID),
		RoomID:        strings.TrimSpace(input.RoomID),
		Date:          strings.TrimSpace(input.Date),
		StartTime:     strings.TrimSpace(input.StartTime),
		EndTime:       strings.TrimSpace(input.EndTime),
		RequesterName: strings.TrimSpace(input.RequesterName),
		Description:   strings.TrimSpace(input.Description),
	}
}

func validateBookingInput(input BookingInput) *ValidationError {
	missing := &ValidationError{Reason: ErrMissingField}
	if input.RoomID == "" {
		missing.add("roomId", "room is required")
	}
	if input.Date == "" {
		missing.add("date", "date is required")
	}
	if input.StartTime == "" {
		missing.add("startTime", "start time is required")
	}
	if input.EndTime == "" {
		missing.add("endTime", "end time is required")
	}
	if input.RequesterName == "" {
		missing.add("requesterName", "requester name is required")
	}
	if missing.HasErrors() {
		return missing
	}

	timeRange := &ValidationError{Reason: ErrInvalidTimeRange}
	if !scheduler.IsClockTime(input.StartTime) {
		timeRange.add("startTime", "time must use HH:mm")
	}
	if !scheduler.IsClockTime(input.EndTime) {
		timeRange.add("endTime", "time must use HH:mm")
	}
	if !timeRange.HasErrors() {
		start, _ := scheduler.ParseTimeToMinutes(input.StartTime)
		end, _ := scheduler.ParseTimeToMinutes(input.EndTime)
		if start >= end {
			timeRange.add("endTime", "end time must be after start time")
		}
	}
	if timeRange.HasErrors() {
		return timeRange
	}

	if _, err := time.Parse(dateLayout, input.Date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must use YYYY-MM-DD")
		return vErr
	}
	return nil
}

// IsBookingRejection reports whether err is one of the booking validation outcomes
// rather than an infrastructure failure.
func IsBookingRejection(err error) bool {
	var vErr *ValidationError
	return errors.Is(err, ErrSchedulingConflict) || errors.As(err, &vErr)
}
