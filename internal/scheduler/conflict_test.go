package scheduler

import (
	"errors"
	"testing"
)

func TestParseTimeToMinutes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "midnight", input: "00:00", want: 0},
		{name: "morning", input: "09:30", want: 570},
		{name: "last minute", input: "23:59", want: 1439},
		{name: "single digit hour", input: "7:05", want: 425},
		{name: "out of range is not rejected", input: "25:00", want: 1500},
		{name: "missing separator", input: "0930", wantErr: true},
		{name: "non numeric hour", input: "ab:30", wantErr: true},
		{name: "non numeric minute", input: "09:xx", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseTimeToMinutes(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedTime) {
					t.Fatalf("expected ErrMalformedTime, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d minutes, got %d", tc.want, got)
			}
		})
	}
}

func TestFormatMinutes(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		0:    "00:00",
		570:  "09:30",
		1439: "23:59",
		-5:   "00:00",
		2000: "23:59",
	}
	for input, want := range cases {
		if got := FormatMinutes(input); got != want {
			t.Fatalf("FormatMinutes(%d) = %q, want %q", input, got, want)
		}
	}
}

func TestIsClockTime(t *testing.T) {
	t.Parallel()

	valid := []string{"00:00", "07:15", "23:59"}
	invalid := []string{"24:00", "09:60", "9:00", "09-00", "ab:cd", "", "09:000"}

	for _, value := range valid {
		if !IsClockTime(value) {
			t.Fatalf("expected %q to be a clock time", value)
		}
	}
	for _, value := range invalid {
		if IsClockTime(value) {
			t.Fatalf("expected %q to be rejected", value)
		}
	}
}

func TestHasConflict(t *testing.T) {
	t.Parallel()

	existing := []Booking{
		{ID: "b1", RoomID: "R1", Date: "2024-03-10", StartTime: "09:00", EndTime: "10:00"},
	}

	cases := []struct {
		name      string
		candidate Booking
		want      bool
	}{
		{
			name:      "back to back bookings do not conflict",
			candidate: Booking{ID: "b2", RoomID: "R1", Date: "2024-03-10", StartTime: "10:00", EndTime: "11:00"},
			want:      false,
		},
		{
			name:      "ending when another starts does not conflict",
			candidate: Booking{ID: "b2", RoomID: "R1", Date: "2024-03-10", StartTime: "08:00", EndTime: "09:00"},
			want:      false,
		},
		{
			name:      "partial overlap conflicts",
			candidate: Booking{ID: "b2", RoomID: "R1", Date: "2024-03-10", StartTime: "09:30", EndTime: "10:30"},
			want:      true,
		},
		{
			name:      "containing interval conflicts",
			candidate: Booking{ID: "b2", RoomID: "R1", Date: "2024-03-10", StartTime: "08:00", EndTime: "11:00"},
			want:      true,
		},
		{
			name:      "identical interval conflicts",
			candidate: Booking{ID: "b2", RoomID: "R1", Date: "2024-03-10", StartTime: "09:00", EndTime: "10:00"},
			want:      true,
		},
		{
			name:      "other room never conflicts",
			candidate: Booking{ID: "b2", RoomID: "R2", Date: "2024-03-10", StartTime: "09:30", EndTime: "10:30"},
			want:      false,
		},
		{
			name:      "other date never conflicts",
			candidate: Booking{ID: "b2", RoomID: "R1", Date: "2024-03-11", StartTime: "09:30", EndTime: "10:30"},
			want:      false,
		},
		{
			name:      "updating a booking ignores its own slot",
			candidate: Booking{ID: "b1", RoomID: "R1", Date: "2024-03-10", StartTime: "09:15", EndTime: "10:15"},
			want:      false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := HasConflict(tc.candidate, existing)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected conflict=%v, got %v", tc.want, got)
			}
		})
	}
}

func TestHasConflict_IsSymmetric(t *testing.T) {
	t.Parallel()

	a := Booking{ID: "a", RoomID: "R1", Date: "2024-03-10", StartTime: "09:00", EndTime: "10:30"}
	b := Booking{ID: "b", RoomID: "R1", Date: "2024-03-10", StartTime: "10:00", EndTime: "11:00"}

	ab, err := HasConflict(a, []Booking{b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := HasConflict(b, []Booking{a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ab || !ba {
		t.Fatalf("expected overlap in both directions, got a->b=%v b->a=%v", ab, ba)
	}
}

func TestFindConflict(t *testing.T) {
	t.Parallel()

	existing := []Booking{
		{ID: "b1", RoomID: "R1", Date: "2024-03-10", StartTime: "08:00", EndTime: "09:00"},
		{ID: "b2", RoomID: "R1", Date: "2024-03-10", StartTime: "09:00", EndTime: "10:00"},
		{ID: "b3", RoomID: "R1", Date: "2024-03-10", StartTime: "10:00", EndTime: "11:00"},
	}

	t.Run("returns the first overlapping booking", func(t *testing.T) {
		conflict, found, err := FindConflict(existing, Booking{ID: "new", RoomID: "R1", Date: "2024-03-10", StartTime: "09:30", EndTime: "10:30"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !found {
			t.Fatalf("expected a conflict")
		}
		if conflict.WithBookingID != "b2" {
			t.Fatalf("expected conflict with b2, got %q", conflict.WithBookingID)
		}
		if conflict.BookingID != "new" || conflict.RoomID != "R1" || conflict.Date != "2024-03-10" {
			t.Fatalf("unexpected conflict details: %+v", conflict)
		}
	})

	t.Run("malformed candidate time is an error", func(t *testing.T) {
		_, found, err := FindConflict(existing, Booking{ID: "new", RoomID: "R1", Date: "2024-03-10", StartTime: "nine", EndTime: "10:30"})
		if !errors.Is(err, ErrMalformedTime) {
			t.Fatalf("expected ErrMalformedTime, got %v", err)
		}
		if found {
			t.Fatalf("malformed input must not report a conflict")
		}
	})

	t.Run("malformed candidate is ignored when nothing shares its room and date", func(t *testing.T) {
		_, found, err := FindConflict(existing, Booking{ID: "new", RoomID: "R9", Date: "2024-03-10", StartTime: "nine", EndTime: "10:30"})
		if err != nil || found {
			t.Fatalf("expected no conflict and no error, got found=%v err=%v", found, err)
		}
	})

	t.Run("empty collection has no conflicts", func(t *testing.T) {
		_, found, err := FindConflict(nil, Booking{ID: "new", RoomID: "R1", Date: "2024-03-10", StartTime: "09:00", EndTime: "10:00"})
		if err != nil || found {
			t.Fatalf("expected no conflict, got found=%v err=%v", found, err)
		}
	})
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	bookings := []Booking{
		{ID: "b3", RoomID: "R1", Date: "2024-03-10", StartTime: "09:30", EndTime: "10:30"},
		{ID: "b1", RoomID: "R1", Date: "2024-03-10", StartTime: "09:00", EndTime: "10:00"},
		{ID: "b2", RoomID: "R1", Date: "2024-03-10", StartTime: "10:30", EndTime: "11:00"},
		{ID: "b4", RoomID: "R2", Date: "2024-03-10", StartTime: "09:00", EndTime: "10:00"},
		{ID: "b5", RoomID: "R1", Date: "2024-03-11", StartTime: "09:00", EndTime: "10:00"},
		{ID: "bad", RoomID: "R1", Date: "2024-03-10", StartTime: "??", EndTime: "10:00"},
	}

	conflicts := DetectConflicts(bookings)
	if len(conflicts) != 1 {
		t.Fatalf("expected exactly one conflict, got %+v", conflicts)
	}
	got := conflicts[0]
	if got.BookingID != "b1" || got.WithBookingID != "b3" {
		t.Fatalf("expected b1/b3 pair, got %+v", got)
	}
}
