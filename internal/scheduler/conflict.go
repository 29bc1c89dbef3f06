package scheduler

import "sort"

// Booking is the slice of a reservation the detector needs: identity, room, day and clock interval.
type Booking struct {
	ID        string
	RoomID    string
	Date      string
	StartTime string
	EndTime   string
}

// Conflict names an existing booking that overlaps a candidate in the same room on the same day.
type Conflict struct {
	BookingID     string
	WithBookingID string
	RoomID        string
	Date          string
}

// Overlaps reports whether two half-open minute intervals [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && e1 > s2
}

// HasConflict reports whether candidate overlaps any existing booking for the same room and date.
//
// A booking never conflicts with itself, so updates can be checked against the full collection.
func HasConflict(candidate Booking, existing []Booking) (bool, error) {
	_, found, err := FindConflict(existing, candidate)
	return found, err
}

// FindConflict returns the first existing booking that overlaps candidate.
//
// Bookings that end exactly when another starts do not conflict.
func FindConflict(existing []Booking, candidate Booking) (Conflict, bool, error) {
	var (
		start, end int
		parsed     bool
	)

	for _, booking := range existing {
		if booking.ID == candidate.ID {
			continue
		}
		if booking.RoomID != candidate.RoomID || booking.Date != candidate.Date {
			continue
		}

		if !parsed {
			var err error
			if start, err = ParseTimeToMinutes(candidate.StartTime); err != nil {
				return Conflict{}, false, err
			}
			if end, err = ParseTimeToMinutes(candidate.EndTime); err != nil {
				return Conflict{}, false, err
			}
			parsed = true
		}

		otherStart, err := ParseTimeToMinutes(booking.StartTime)
		if err != nil {
			return Conflict{}, false, err
		}
		otherEnd, err := ParseTimeToMinutes(booking.EndTime)
		if err != nil {
			return Conflict{}, false, err
		}

		if Overlaps(start, end, otherStart, otherEnd) {
			return Conflict{
				BookingID:     candidate.ID,
				WithBookingID: booking.ID,
				RoomID:        booking.RoomID,
				Date:          booking.Date,
			}, true, nil
		}
	}

	return Conflict{}, false, nil
}

// DetectConflicts audits a whole collection and returns every overlapping pair once.
//
// Bookings with unparseable times are skipped. Results are ordered by room, date and the
// pair's identifiers so repeated audits are stable.
func DetectConflicts(bookings []Booking) []Conflict {
	type interval struct {
		booking    Booking
		start, end int
	}

	groups := make(map[string][]interval)
	for _, booking := range bookings {
		start, err := ParseTimeToMinutes(booking.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseTimeToMinutes(booking.EndTime)
		if err != nil {
			continue
		}
		key := booking.RoomID + "\x00" + booking.Date
		groups[key] = append(groups[key], interval{booking: booking, start: start, end: end})
	}

	var conflicts []Conflict
	for _, group := range groups {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.booking.ID == b.booking.ID {
					continue
				}
				if !Overlaps(a.start, a.end, b.start, b.end) {
					continue
				}
				first, second := a.booking.ID, b.booking.ID
				if second < first {
					first, second = second, first
				}
				conflicts = append(conflicts, Conflict{
					BookingID:     first,
					WithBookingID: second,
					RoomID:        a.booking.RoomID,
					Date:          a.booking.Date,
				})
			}
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].RoomID != conflicts[j].RoomID {
			return conflicts[i].RoomID < conflicts[j].RoomID
		}
		if conflicts[i].Date != conflicts[j].Date {
			return conflicts[i].Date < conflicts[j].Date
		}
		if conflicts[i].BookingID != conflicts[j].BookingID {
			return conflicts[i].BookingID < conflicts[j].BookingID
		}
		return conflicts[i].WithBookingID < conflicts[j].WithBookingID
	})

	return conflicts
}
