package application

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/room-scheduler/internal/scheduler"
)

var bookingNow = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestBookingService(repo *bookingRepoStub, rooms *roomRepoStub, opts ...BookingServiceOption) *BookingService {
	var roomRepo RoomRepository
	if rooms != nil {
		roomRepo = rooms
	}
	return NewBookingService(repo, roomRepo, sequenceIDs("booking"), func() time.Time { return bookingNow }, opts...)
}

func seededBooking() Booking {
	return Booking{
		ID:            "b1",
		RoomID:        "R1",
		Date:          "2024-06-01",
		StartTime:     "09:00",
		EndTime:       "10:00",
		RequesterName: "Ana",
		CreatedAt:     1717000000000,
	}
}

func bookingInput(roomID, date, start, end string) BookingInput {
	return BookingInput{RoomID: roomID, Date: date, StartTime: start, EndTime: end, RequesterName: "Bruno"}
}

func TestBookingService_SaveBookingScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   BookingInput
		wantErr error
	}{
		{name: "overlapping booking in the same room is rejected", input: bookingInput("R1", "2024-06-01", "09:30", "10:30"), wantErr: ErrSchedulingConflict},
		{name: "adjacent booking is accepted", input: bookingInput("R1", "2024-06-01", "10:00", "11:00")},
		{name: "zero length booking is rejected", input: bookingInput("R1", "2024-06-01", "08:00", "08:00"), wantErr: ErrInvalidTimeRange},
		{name: "inverted range is rejected", input: bookingInput("R1", "2024-06-01", "11:00", "10:00"), wantErr: ErrInvalidTimeRange},
		{name: "unchanged edit does not conflict with itself", input: BookingInput{ID: "b1", RoomID: "R1", Date: "2024-06-01", StartTime: "09:00", EndTime: "10:00", RequesterName: "Ana"}},
		{name: "same slot in another room is accepted", input: bookingInput("R2", "2024-06-01", "09:00", "10:00")},
		{name: "same slot on another date is accepted", input: bookingInput("R1", "2024-06-02", "09:00", "10:00")},
		{name: "booking before the day window is accepted", input: bookingInput("R1", "2024-06-01", "06:00", "07:00")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &bookingRepoStub{bookings: []Booking{seededBooking()}}
			svc := newTestBookingService(repo, nil)
			before := repo.LoadBookingsOrFail(t)

			_, err := svc.SaveBooking(context.Background(), SaveBookingParams{Principal: commonPrincipal, Input: tt.input})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if repo.saveCalls != 0 {
					t.Fatalf("expected no write on rejection, got %d", repo.saveCalls)
				}
				if !reflect.DeepEqual(before, repo.bookings) {
					t.Fatalf("expected bookings to be unchanged, got %#v", repo.bookings)
				}
				return
			}
			if err != nil {
				t.Fatalf("SaveBooking failed: %v", err)
			}
		})
	}
}

func (r *bookingRepoStub) LoadBookingsOrFail(t *testing.T) []Booking {
	t.Helper()
	bookings, err := r.LoadBookings(context.Background())
	if err != nil {
		t.Fatalf("LoadBookings failed: %v", err)
	}
	return bookings
}

func TestBookingService_SaveBooking(t *testing.T) {
	t.Parallel()

	t.Run("reports the conflicting booking id", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepoStub{bookings: []Booking{seededBooking()}}
		svc := newTestBookingService(repo, nil)

		_, err := svc.SaveBooking(context.Background(), SaveBookingParams{
			Principal: commonPrincipal,
			Input:     bookingInput("R1", "2024-06-01", "09:30", "10:30"),
		})
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if conflict.WithBookingID != "b1" || conflict.RoomID != "R1" || conflict.Date != "2024-06-01" {
			t.Fatalf("unexpected conflict details: %#v", conflict)
		}
	})

	t.Run("missing fields are checked before the time range", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepoStub{}
		svc := newTestBookingService(repo, nil)

		_, err := svc.SaveBooking(context.Background(), SaveBookingParams{
			Principal: commonPrincipal,
			Input:     BookingInput{RoomID: "R1", Date: "2024-06-01", StartTime: "10:00", EndTime: "09:00", RequesterName: "  "},
		})
		if !errors.Is(err, ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["requesterName"] == "" {
			t.Fatalf("expected requesterName field error, got %#v", err)
		}
		if len(vErr.FieldErrors) != 1 {
			t.Fatalf("expected only the missing field, got %#v", vErr.FieldErrors)
		}
	})

	t.Run("time range is checked before conflicts", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepoStub{bookings: []Booking{seededBooking()}}
		svc := newTestBookingService(repo, nil)

		_, err := svc.SaveBooking(context.Background(), SaveBookingParams{
			Principal: commonPrincipal,
			Input:     bookingInput("R1", "2024-06-01", "09:45", "09:30"),
		})
		if !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
		}
	})

	t.Run("malformed clock time is an invalid range", func(t *testing.T) {
		t.Parallel()

		svc := newTestBookingService(&bookingRepoStub{}, nil)
		_, err := svc.SaveBooking(context.Background(), SaveBookingParams{
			Principal: commonPrincipal,
			Input:     bookingInput("R1", "2024-06-01", "9h", "10:00"),
		})
		if !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
		}
	})

	t.Run("malformed date is a validation error", func(t *testing.T) {
		t.Parallel()

		svc := newTestBookingService(&bookingRepoStub{}, nil)
		_, err := svc.SaveBooking(context.Background(), SaveBookingParams{
			Principal: commonPrincipal,
			Input:     bookingInput("R1", "01/06/2024", "09:00", "10:00"),
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["date"] == "" {
			t.Fatalf("expected date validation error, got %v", err)
		}
		if ErrorKind(err) != "validation" {
			t.Fatalf("expected generic validation kind, got %s", ErrorKind(err))
		}
	})

	t.Run("creates with generated id and creation time", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepoStub{bookings: []Booking{seededBooking()}}
		svc := newTestBookingService(repo, nil)

		input := bookingInput("R1", "2024-06-01", "10:00", "11:00")
		input.Description = "  Reunião semanal "
		booking, err := svc.SaveBooking(context.Background(), SaveBookingParams{Principal: commonPrincipal, Input: input})
		if err != nil {
			t.Fatalf("SaveBooking failed: %v", err)
		}
		if booking.ID != "booking-1" {
			t.Fatalf("expected generated id, got %q", booking.ID)
		}
		if booking.CreatedAt != bookingNow.UnixMilli() {
			t.Fatalf("expected createdAt %d, got %d", bookingNow.UnixMilli(), booking.CreatedAt)
		}
		if booking.Description != "Reunião semanal" {
			t.Fatalf("expected trimmed description, got %q", booking.Description)
		}
		if len(repo.bookings) != 2 || repo.bookings[1].ID != "booking-1" {
			t.Fatalf("expected booking appended, got %#v", repo.bookings)
		}
	})

	t.Run("update replaces in place and keeps creation time", func(t *testing.T) {
		t.Parallel()

		other := Booking{ID: "b2", RoomID: "R2", Date: "2024-06-01", StartTime: "13:00", EndTime: "14:00", RequesterName: "Caio", CreatedAt: 1}
		repo := &bookingRepoStub{bookings: []Booking{seededBooking(), other}}
		svc := newTestBookingService(repo, nil)

		booking, err := svc.SaveBooking(context.Background(), SaveBookingParams{
			Principal: commonPrincipal,
			Input:     BookingInput{ID: "b1", RoomID: "R1", Date: "2024-06-01", StartTime: "09:30", EndTime: "11:00", RequesterName: "Ana"},
		})
		if err != nil {
			t.Fatalf("SaveBooking failed: %v", err)
		}
		if booking.CreatedAt != seededBooking().CreatedAt {
			t.Fatalf("expected createdAt to be preserved, got %d", booking.CreatedAt)
		}
		if len(repo.bookings) != 2 || repo.bookings[0].ID != "b1" || repo.bookings[0].EndTime != "11:00" {
			t.Fatalf("expected in-place replacement, got %#v", repo.bookings)
		}
	})

	t.Run("unknown explicit id is inserted", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepoStub{}
		svc := newTestBookingService(repo, nil)

		input := bookingInput("R1", "2024-06-01", "09:00", "10:00")
		input.ID = "external-7"
		booking, err := svc.SaveBooking(context.Background(), SaveBookingParams{Principal: commonPrincipal, Input: input})
		if err != nil {
			t.Fatalf("SaveBooking failed: %v", err)
		}
		if booking.ID != "external-7" || booking.CreatedAt != bookingNow.UnixMilli() {
			t.Fatalf("unexpected booking: %#v", booking)
		}
	})

	t.Run("requires an authenticated principal", func(t *testing.T) {
		t.Parallel()

		svc := newTestBookingService(&bookingRepoStub{}, nil)
		_, err := svc.SaveBooking(context.Background(), SaveBookingParams{Input: bookingInput("R1", "2024-06-01", "09:00", "10:00")})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		t.Parallel()

		svc := newTestBookingService(&bookingRepoStub{saveErr: errBoom}, nil)
		_, err := svc.SaveBooking(context.Background(), SaveBookingParams{Principal: commonPrincipal, Input: bookingInput("R1", "2024-06-01", "09:00", "10:00")})
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected wrapped repository error, got %v", err)
		}
		if ErrorKind(err) != "unexpected" {
			t.Fatalf("expected unexpected kind, got %s", ErrorKind(err))
		}
	})
}

func TestBookingService_DeleteThenResubmit(t *testing.T) {
	t.Parallel()

	repo := &bookingRepoStub{bookings: []Booking{seededBooking()}}
	svc := newTestBookingService(repo, nil)
	ctx := context.Background()
	conflicting := SaveBookingParams{Principal: commonPrincipal, Input: bookingInput("R1", "2024-06-01", "09:30", "10:30")}

	if _, err := svc.SaveBooking(ctx, conflicting); !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("expected conflict before delete, got %v", err)
	}
	if err := svc.DeleteBooking(ctx, commonPrincipal, "b1"); err != nil {
		t.Fatalf("DeleteBooking failed: %v", err)
	}
	if _, err := svc.SaveBooking(ctx, conflicting); err != nil {
		t.Fatalf("expected resubmission to succeed, got %v", err)
	}
}

func TestBookingService_DeleteBooking(t *testing.T) {
	t.Parallel()

	t.Run("unknown id does not write", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepoStub{bookings: []Booking{seededBooking()}}
		svc := newTestBookingService(repo, nil)

		if err := svc.DeleteBooking(context.Background(), commonPrincipal, "missing"); err != nil {
			t.Fatalf("DeleteBooking failed: %v", err)
		}
		if repo.saveCalls != 0 || len(repo.bookings) != 1 {
			t.Fatalf("expected store untouched, saves=%d bookings=%#v", repo.saveCalls, repo.bookings)
		}
	})

	t.Run("requires an authenticated principal", func(t *testing.T) {
		t.Parallel()

		svc := newTestBookingService(&bookingRepoStub{}, nil)
		if err := svc.DeleteBooking(context.Background(), Principal{}, "b1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestBookingService_Subscribe(t *testing.T) {
	t.Parallel()

	repo := &bookingRepoStub{bookings: []Booking{seededBooking()}}
	svc := newTestBookingService(repo, nil)
	ctx := context.Background()

	var events []Event
	unsubscribe := svc.Subscribe(func(e Event) { events = append(events, e) })

	if _, err := svc.SaveBooking(ctx, SaveBookingParams{Principal: commonPrincipal, Input: bookingInput("R1", "2024-06-01", "09:30", "10:30")}); err == nil {
		t.Fatalf("expected conflict")
	}
	if len(events) != 0 {
		t.Fatalf("expected no event for a rejected booking, got %#v", events)
	}

	if _, err := svc.SaveBooking(ctx, SaveBookingParams{Principal: commonPrincipal, Input: bookingInput("R1", "2024-06-01", "10:00", "11:00")}); err != nil {
		t.Fatalf("SaveBooking failed: %v", err)
	}
	if err := svc.DeleteBooking(ctx, commonPrincipal, "b1"); err != nil {
		t.Fatalf("DeleteBooking failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected two events, got %#v", events)
	}
	if events[0].Kind != EventBookingSaved || events[0].Total != 2 || events[0].Booking == nil {
		t.Fatalf("unexpected saved event: %#v", events[0])
	}
	if events[1].Kind != EventBookingDeleted || events[1].BookingID != "b1" || events[1].Total != 1 {
		t.Fatalf("unexpected deleted event: %#v", events[1])
	}

	unsubscribe()
	if err := svc.DeleteBooking(ctx, commonPrincipal, "booking-1"); err != nil {
		t.Fatalf("DeleteBooking failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected no events after unsubscribe, got %d", len(events))
	}
}

func TestBookingService_ListBookings(t *testing.T) {
	t.Parallel()

	repo := &bookingRepoStub{bookings: []Booking{
		{ID: "a", RoomID: "1", Date: "2024-06-01", StartTime: "09:00", EndTime: "10:00", RequesterName: "Ana"},
		{ID: "b", RoomID: "2", Date: "2024-06-02", StartTime: "08:00", EndTime: "09:00", RequesterName: "Bruno", Description: "Planejamento"},
		{ID: "c", RoomID: "1", Date: "2024-06-01", StartTime: "14:00", EndTime: "15:00", RequesterName: "Carla"},
	}}
	rooms := &roomRepoStub{rooms: []Room{{ID: "1", Name: "Sala Copacabana"}, {ID: "2", Name: "Sala Ipanema"}}}
	svc := newTestBookingService(repo, rooms)

	tests := []struct {
		name   string
		params ListBookingsParams
		want   []string
	}{
		{name: "all bookings newest first", params: ListBookingsParams{}, want: []string{"b", "c", "a"}},
		{name: "filters by date", params: ListBookingsParams{Date: "2024-06-01"}, want: []string{"c", "a"}},
		{name: "filters by room", params: ListBookingsParams{RoomID: "2"}, want: []string{"b"}},
		{name: "searches requester", params: ListBookingsParams{Query: "carla"}, want: []string{"c"}},
		{name: "searches description", params: ListBookingsParams{Query: "PLANEJ"}, want: []string{"b"}},
		{name: "searches room name", params: ListBookingsParams{Query: "copacabana"}, want: []string{"c", "a"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.params.Principal = commonPrincipal
			got, err := svc.ListBookings(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("ListBookings failed: %v", err)
			}
			ids := make([]string, len(got))
			for i, b := range got {
				ids[i] = b.ID
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestBookingService_GetBooking(t *testing.T) {
	t.Parallel()

	svc := newTestBookingService(&bookingRepoStub{bookings: []Booking{seededBooking()}}, nil)

	got, err := svc.GetBooking(context.Background(), commonPrincipal, "b1")
	if err != nil || got.ID != "b1" {
		t.Fatalf("expected booking b1, got %#v, %v", got, err)
	}
	if _, err := svc.GetBooking(context.Background(), commonPrincipal, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookingService_DaySchedule(t *testing.T) {
	t.Parallel()

	rooms := &roomRepoStub{rooms: []Room{{ID: "2", Name: "sala ipanema"}, {ID: "1", Name: "Sala Copacabana"}}}
	repo := &bookingRepoStub{bookings: []Booking{
		{ID: "late", RoomID: "1", Date: "2024-06-01", StartTime: "14:00", EndTime: "15:00", RequesterName: "Ana"},
		{ID: "early", RoomID: "1", Date: "2024-06-01", StartTime: "07:00", EndTime: "09:10", RequesterName: "Bia"},
		{ID: "night", RoomID: "2", Date: "2024-06-01", StartTime: "21:00", EndTime: "22:00", RequesterName: "Caio"},
		{ID: "other-day", RoomID: "2", Date: "2024-06-02", StartTime: "09:00", EndTime: "10:00", RequesterName: "Davi"},
	}}
	svc := newTestBookingService(repo, rooms)

	schedule, err := svc.DaySchedule(context.Background(), commonPrincipal, "2024-06-01")
	if err != nil {
		t.Fatalf("DaySchedule failed: %v", err)
	}

	if len(schedule.HourMarks) != 14 || schedule.HourMarks[0] != "07:00" {
		t.Fatalf("unexpected hour marks: %v", schedule.HourMarks)
	}
	if len(schedule.Rooms) != 2 || schedule.Rooms[0].Room.ID != "1" || schedule.Rooms[1].Room.ID != "2" {
		t.Fatalf("expected rooms sorted by name, got %#v", schedule.Rooms)
	}

	first := schedule.Rooms[0].Bookings
	if len(first) != 2 || first[0].Booking.ID != "early" || first[1].Booking.ID != "late" {
		t.Fatalf("expected bookings ordered by start, got %#v", first)
	}
	if first[0].Placement.OffsetFraction != 0 || first[0].Placement.WidthFraction != 130.0/780.0 {
		t.Fatalf("unexpected placement: %#v", first[0].Placement)
	}

	second := schedule.Rooms[1].Bookings
	if len(second) != 1 || second[0].Placement.Visible() {
		t.Fatalf("expected the night booking to be invisible, got %#v", second)
	}
}

func TestBookingService_DayScheduleCacheInvalidation(t *testing.T) {
	t.Parallel()

	rooms := &roomRepoStub{rooms: []Room{{ID: "1", Name: "Sala Copacabana"}}}
	repo := &bookingRepoStub{}
	broker := NewEventBroker()
	svc := newTestBookingService(repo, rooms, WithEventBroker(broker), WithWindow(scheduler.Window{StartHour: 8, EndHour: 18}))
	roomSvc := NewRoomService(rooms, sequenceIDs("room"), nil, WithRoomEvents(broker))
	ctx := context.Background()

	if _, err := svc.DaySchedule(ctx, commonPrincipal, "2024-06-01"); err != nil {
		t.Fatalf("DaySchedule failed: %v", err)
	}

	if _, err := svc.SaveBooking(ctx, SaveBookingParams{Principal: commonPrincipal, Input: bookingInput("1", "2024-06-01", "09:00", "10:00")}); err != nil {
		t.Fatalf("SaveBooking failed: %v", err)
	}
	schedule, err := svc.DaySchedule(ctx, commonPrincipal, "2024-06-01")
	if err != nil {
		t.Fatalf("DaySchedule failed: %v", err)
	}
	if len(schedule.Rooms[0].Bookings) != 1 {
		t.Fatalf("expected the new booking after invalidation, got %#v", schedule.Rooms[0])
	}
	if schedule.Window.StartHour != 8 || len(schedule.HourMarks) != 11 {
		t.Fatalf("expected configured window, got %#v", schedule.Window)
	}

	if _, err := roomSvc.CreateRoom(ctx, CreateRoomParams{Principal: managerPrincipal, Input: RoomInput{Name: "Auditório", Location: "Térreo", Capacity: 50}}); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	schedule, err = svc.DaySchedule(ctx, commonPrincipal, "2024-06-01")
	if err != nil {
		t.Fatalf("DaySchedule failed: %v", err)
	}
	if len(schedule.Rooms) != 2 {
		t.Fatalf("expected room events to invalidate the cache, got %d rooms", len(schedule.Rooms))
	}
}

// pausingBookingRepo holds the first LoadBookings call after it has read the
// collection until release is closed.
type pausingBookingRepo struct {
	*bookingRepoStub
	paused  atomic.Bool
	loaded  chan struct{}
	release chan struct{}
}

func (r *pausingBookingRepo) LoadBookings(ctx context.Context) ([]Booking, error) {
	bookings, err := r.bookingRepoStub.LoadBookings(ctx)
	if r.paused.CompareAndSwap(false, true) {
		close(r.loaded)
		<-r.release
	}
	return bookings, err
}

func TestBookingService_DayScheduleDoesNotCacheSnapshotOlderThanSave(t *testing.T) {
	t.Parallel()

	rooms := &roomRepoStub{rooms: []Room{{ID: "R1", Name: "Sala Copacabana"}}}
	repo := &pausingBookingRepo{
		bookingRepoStub: &bookingRepoStub{},
		loaded:          make(chan struct{}),
		release:         make(chan struct{}),
	}
	svc := NewBookingService(repo, rooms, sequenceIDs("booking"), func() time.Time { return bookingNow })
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.DaySchedule(ctx, commonPrincipal, "2024-06-01")
		done <- err
	}()

	<-repo.loaded
	if _, err := svc.SaveBooking(ctx, SaveBookingParams{Principal: commonPrincipal, Input: bookingInput("R1", "2024-06-01", "09:00", "10:00")}); err != nil {
		t.Fatalf("SaveBooking failed: %v", err)
	}
	close(repo.release)
	if err := <-done; err != nil {
		t.Fatalf("DaySchedule failed: %v", err)
	}

	schedule, err := svc.DaySchedule(ctx, commonPrincipal, "2024-06-01")
	if err != nil {
		t.Fatalf("DaySchedule failed: %v", err)
	}
	if len(schedule.Rooms) != 1 || len(schedule.Rooms[0].Bookings) != 1 {
		t.Fatalf("expected the accepted booking on the calendar, got %#v", schedule.Rooms)
	}
}

func TestBookingService_DayScheduleRejectsBadDate(t *testing.T) {
	t.Parallel()

	svc := newTestBookingService(&bookingRepoStub{}, &roomRepoStub{})
	_, err := svc.DaySchedule(context.Background(), commonPrincipal, "2024-13-40")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBookingService_Audit(t *testing.T) {
	t.Parallel()

	rooms := &roomRepoStub{rooms: []Room{{ID: "1", Name: "Sala Copacabana"}}}
	repo := &bookingRepoStub{bookings: []Booking{
		{ID: "a", RoomID: "1", Date: "2024-06-01", StartTime: "09:00", EndTime: "10:00"},
		{ID: "b", RoomID: "1", Date: "2024-06-01", StartTime: "09:30", EndTime: "10:30"},
		{ID: "c", RoomID: "9", Date: "2024-06-01", StartTime: "09:00", EndTime: "10:00"},
		{ID: "d", RoomID: "1", Date: "2024-06-01", StartTime: "x", EndTime: "10:00"},
	}}
	svc := newTestBookingService(repo, rooms)

	if _, err := svc.Audit(context.Background(), commonPrincipal); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for common role, got %v", err)
	}

	report, err := svc.Audit(context.Background(), managerPrincipal)
	if err != nil {
		t.Fatalf("Audit failed: %v", err)
	}
	if report.Clean() {
		t.Fatalf("expected findings")
	}
	if len(report.Conflicts) != 1 || report.Conflicts[0].BookingID != "a" || report.Conflicts[0].WithBookingID != "b" {
		t.Fatalf("unexpected conflicts: %#v", report.Conflicts)
	}
	if len(report.OrphanedBookings) != 1 || report.OrphanedBookings[0].ID != "c" {
		t.Fatalf("unexpected orphans: %#v", report.OrphanedBookings)
	}
	if len(report.MalformedBookings) != 1 || report.MalformedBookings[0].ID != "d" {
		t.Fatalf("unexpected malformed bookings: %#v", report.MalformedBookings)
	}
}
