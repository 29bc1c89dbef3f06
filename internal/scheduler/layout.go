package scheduler

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when business hours do not describe a positive span within a day.
var ErrInvalidWindow = errors.New("scheduler: invalid business hours window")

// Window is the visible business-hours span of a day calendar, in whole hours.
type Window struct {
	StartHour int
	EndHour   int
}

// DefaultWindow returns the 07:00-20:00 window used by the day calendar.
func DefaultWindow() Window {
	return Window{StartHour: 7, EndHour: 20}
}

// Validate checks that the window is a non-empty span inside 0-24.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("%w: %02d:00-%02d:00", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	return nil
}

func (w Window) startMinutes() int { return w.StartHour * 60 }
func (w Window) endMinutes() int   { return w.EndHour * 60 }

// HourMarks lists one "HH:00" label per hour boundary, both ends included.
func (w Window) HourMarks() []string {
	if w.Validate() != nil {
		return nil
	}
	marks := make([]string, 0, w.EndHour-w.StartHour+1)
	for hour := w.StartHour; hour <= w.EndHour; hour++ {
		marks = append(marks, FormatMinutes(hour*60))
	}
	return marks
}

// Placement positions a booking on the window axis as fractions of the window duration.
type Placement struct {
	OffsetFraction float64
	WidthFraction  float64
}

// Visible reports whether any part of the booking falls inside the window.
func (p Placement) Visible() bool {
	return p.WidthFraction > 0
}

// Layout clamps a booking's interval to the window and returns its relative placement.
//
// Bookings entirely outside the window yield a non-positive width and are not rendered.
func Layout(startTime, endTime string, window Window) (Placement, error) {
	if err := window.Validate(); err != nil {
		return Placement{}, err
	}

	start, err := ParseTimeToMinutes(startTime)
	if err != nil {
		return Placement{}, err
	}
	end, err := ParseTimeToMinutes(endTime)
	if err != nil {
		return Placement{}, err
	}

	windowStart, windowEnd := window.startMinutes(), window.endMinutes()
	total := float64(windowEnd - windowStart)

	effectiveStart := max(start, windowStart)
	effectiveEnd := min(end, windowEnd)

	return Placement{
		OffsetFraction: float64(effectiveStart-windowStart) / total,
		WidthFraction:  float64(effectiveEnd-effectiveStart) / total,
	}, nil
}
