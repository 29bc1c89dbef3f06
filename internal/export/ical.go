// Package export renders bookings as iCalendar feeds and XLSX spreadsheets and reads them back.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/example/room-scheduler/internal/application"
)

const (
	productID = "-//roomsched//Room Scheduler//PT-BR"
	uidSuffix = "@roomsched"

	propRoomID    = "X-ROOMSCHED-ROOM-ID"
	propRequester = "X-ROOMSCHED-REQUESTER"

	// Booking times carry no zone, so they are written as floating local times.
	floatingLayout = "20060102T150405"
)

// ErrMissingProperty is returned when a calendar event lacks a property needed to rebuild a booking.
var ErrMissingProperty = errors.New("export: missing event property")

// WriteICS encodes bookings as one VEVENT each. rooms supplies names for SUMMARY and LOCATION;
// stamp is written as DTSTAMP.
func WriteICS(w io.Writer, bookings []application.Booking, rooms []application.Room, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	byID := indexRooms(rooms)
	for _, b := range bookings {
		event, err := bookingEvent(b, byID[b.RoomID], stamp)
		if err != nil {
			return fmt.Errorf("booking %s: %w", b.ID, err)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func bookingEvent(b application.Booking, room application.Room, stamp time.Time) (*ical.Event, error) {
	start, err := bookingTime(b.Date, b.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := bookingTime(b.Date, b.EndTime)
	if err != nil {
		return nil, err
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, b.ID+uidSuffix)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.Set(floatingProp(ical.PropDateTimeStart, start))
	event.Props.Set(floatingProp(ical.PropDateTimeEnd, end))

	roomName := room.Name
	if roomName == "" {
		roomName = b.RoomID
	}
	event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s: %s", roomName, b.RequesterName))
	if room.Location != "" {
		event.Props.SetText(ical.PropLocation, fmt.Sprintf("%s, %s", roomName, room.Location))
	} else {
		event.Props.SetText(ical.PropLocation, roomName)
	}
	if b.Description != "" {
		event.Props.SetText(ical.PropDescription, b.Description)
	}
	event.Props.SetText(propRoomID, b.RoomID)
	event.Props.SetText(propRequester, b.RequesterName)
	if b.CreatedAt > 0 {
		event.Props.SetDateTime(ical.PropCreated, b.CreatedTime().UTC())
	}
	return event, nil
}

func floatingProp(name string, t time.Time) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Value = t.Format(floatingLayout)
	return prop
}

func bookingTime(date, clock string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %s: %w", date, clock, err)
	}
	return t, nil
}

// ReadICS decodes calendars written by WriteICS back into bookings, in document order.
func ReadICS(r io.Reader) ([]application.Booking, error) {
	dec := ical.NewDecoder(r)
	var bookings []application.Booking
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode calendar: %w", err)
		}
		for _, event := range cal.Events() {
			b, err := eventBooking(event)
			if err != nil {
				return nil, err
			}
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

func eventBooking(event ical.Event) (application.Booking, error) {
	uid, err := event.Props.Text(ical.PropUID)
	if err != nil || uid == "" {
		return application.Booking{}, fmt.Errorf("%w: %s", ErrMissingProperty, ical.PropUID)
	}
	roomID, err := event.Props.Text(propRoomID)
	if err != nil || roomID == "" {
		return application.Booking{}, fmt.Errorf("%w: %s in %s", ErrMissingProperty, propRoomID, uid)
	}
	requester, _ := event.Props.Text(propRequester)
	description, _ := event.Props.Text(ical.PropDescription)

	start, err := eventTime(event, ical.PropDateTimeStart)
	if err != nil {
		return application.Booking{}, fmt.Errorf("event %s: %w", uid, err)
	}
	end, err := eventTime(event, ical.PropDateTimeEnd)
	if err != nil {
		return application.Booking{}, fmt.Errorf("event %s: %w", uid, err)
	}

	b := application.Booking{
		ID:            strings.TrimSuffix(uid, uidSuffix),
		RoomID:        roomID,
		Date:          start.Format(time.DateOnly),
		StartTime:     start.Format("15:04"),
		EndTime:       end.Format("15:04"),
		RequesterName: requester,
		Description:   description,
	}
	if prop := event.Props.Get(ical.PropCreated); prop != nil {
		if created, err := prop.DateTime(time.UTC); err == nil {
			b.CreatedAt = created.UnixMilli()
		}
	}
	return b, nil
}

func eventTime(event ical.Event, name string) (time.Time, error) {
	prop := event.Props.Get(name)
	if prop == nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrMissingProperty, name)
	}
	t, err := prop.DateTime(time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, nil
}

func indexRooms(rooms []application.Room) map[string]application.Room {
	byID := make(map[string]application.Room, len(rooms))
	for _, room := range rooms {
		byID[room.ID] = room
	}
	return byID
}
