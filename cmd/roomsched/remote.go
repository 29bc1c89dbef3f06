package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/room-scheduler/internal/client"
)

func (a *App) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := client.New(a.server).Login(cmd.Context(), email, password)
			if err != nil {
				return describeRemoteError(err)
			}
			a.printf("signed in as %s (%s), token expires %s\n", session.User.Email, session.User.Role, session.ExpiresAt)
			a.printf("export %s=%s\n", tokenEnv, session.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *App) bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookings",
		Aliases: []string{"booking"},
		Short:   "List, create and delete bookings through the API",
	}
	cmd.AddCommand(a.bookingsListCmd())
	cmd.AddCommand(a.bookingsCreateCmd())
	cmd.AddCommand(a.bookingsDeleteCmd())
	return cmd
}

func (a *App) bookingsListCmd() *cobra.Command {
	var filter client.BookingFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings, newest first",
		Example: `  roomsched bookings list
  roomsched bookings list --date 2024-05-10 --room 1
  roomsched bookings list --query ana`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.remote()
			if err != nil {
				return err
			}
			bookings, err := api.ListBookings(cmd.Context(), filter)
			if err != nil {
				return describeRemoteError(err)
			}
			if len(bookings) == 0 {
				a.printf("No bookings found.\n")
				return nil
			}
			writeBookings(a.out, bookings)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Date, "date", "", "only this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.RoomID, "room", "", "only this room id")
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "search requester, description or room name")
	return cmd
}

func writeBookings(w io.Writer, bookings []client.Booking) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tROOM\tREQUESTER\tDESCRIPTION")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%s\n", b.ID, b.Date, b.StartTime, b.EndTime, b.RoomID, b.RequesterName, b.Description)
	}
	_ = tw.Flush()
}

func (a *App) bookingsCreateCmd() *cobra.Command {
	var b client.Booking

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Book a room, or replace a booking with --id",
		Example: `  roomsched bookings create --room 1 --date 2024-05-10 --start 09:00 --end 10:00 --requester "Ana"
  roomsched bookings create --id 6f1c... --room 1 --date 2024-05-10 --start 09:30 --end 10:30 --requester "Ana"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.remote()
			if err != nil {
				return err
			}
			saved, err := api.SaveBooking(cmd.Context(), b)
			if err != nil {
				return describeRemoteError(err)
			}
			a.printf("saved booking %s: room %s %s %s-%s\n", saved.ID, saved.RoomID, saved.Date, saved.StartTime, saved.EndTime)
			return nil
		},
	}

	cmd.Flags().StringVar(&b.ID, "id", "", "existing booking id to replace")
	cmd.Flags().StringVar(&b.RoomID, "room", "", "room id")
	cmd.Flags().StringVar(&b.Date, "date", "", "day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&b.StartTime, "start", "", "start time (HH:mm)")
	cmd.Flags().StringVar(&b.EndTime, "end", "", "end time (HH:mm)")
	cmd.Flags().StringVar(&b.RequesterName, "requester", "", "who the room is booked for")
	cmd.Flags().StringVar(&b.Description, "description", "", "optional note")
	return cmd
}

func (a *App) bookingsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.remote()
			if err != nil {
				return err
			}
			if err := api.DeleteBooking(cmd.Context(), args[0]); err != nil {
				return describeRemoteError(err)
			}
			a.printf("deleted booking %s\n", args[0])
			return nil
		},
	}
}

func (a *App) calendarCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the day calendar as a timeline per room",
		Example: `  roomsched calendar
  roomsched calendar --date 2024-05-10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.remote()
			if err != nil {
				return err
			}
			schedule, err := api.DaySchedule(cmd.Context(), date)
			if err != nil {
				return describeRemoteError(err)
			}
			a.setColor()
			renderCalendar(a.out, schedule, cellsPerHour)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD, defaults to today on the server)")
	return cmd
}

const (
	cellsPerHour   = 4
	roomLabelWidth = 20
)

// renderCalendar draws one timeline row per room followed by its visible bookings.
func renderCalendar(w io.Writer, schedule client.DaySchedule, perHour int) {
	hours := schedule.EndHour - schedule.StartHour
	if hours <= 0 || perHour <= 0 {
		return
	}
	total := hours * perHour

	fmt.Fprintln(w, colorHeader.Sprintf("%s  %02d:00-%02d:00", schedule.Date, schedule.StartHour, schedule.EndHour))

	var ruler strings.Builder
	ruler.WriteString(strings.Repeat(" ", roomLabelWidth+1))
	for h := schedule.StartHour; h < schedule.EndHour; h++ {
		label := fmt.Sprintf("%02d", h)
		ruler.WriteString(label)
		ruler.WriteString(strings.Repeat(" ", max(perHour-len(label), 0)))
	}
	fmt.Fprintln(w, colorMuted.Sprint(ruler.String()))

	for i, row := range schedule.Rooms {
		paint := roomPalette[i%len(roomPalette)]

		cells := []rune(strings.Repeat("·", total))
		visible := make([]client.PlacedBooking, 0, len(row.Bookings))
		for _, placed := range row.Bookings {
			if placed.Width <= 0 {
				continue
			}
			visible = append(visible, placed)
			from, to := cellSpan(placed.Offset, placed.Width, total)
			for c := from; c < to; c++ {
				cells[c] = '█'
			}
		}

		fmt.Fprintf(w, "%-*s %s\n", roomLabelWidth, truncate(row.Room.Name, roomLabelWidth), paint.Sprint(string(cells)))
		for _, placed := range visible {
			b := placed.Booking
			line := fmt.Sprintf("%s-%s %s", b.StartTime, b.EndTime, b.RequesterName)
			if b.Description != "" {
				line += " · " + b.Description
			}
			fmt.Fprintf(w, "%*s %s\n", roomLabelWidth, "", paint.Sprint(line))
		}
	}
}

// cellSpan converts a placement to a half-open cell range. Any visible booking takes at least one cell.
func cellSpan(offset, width float64, total int) (int, int) {
	from := int(math.Round(offset * float64(total)))
	to := int(math.Round((offset + width) * float64(total)))
	from = min(max(from, 0), total-1)
	to = min(max(to, from+1), total)
	return from, to
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// describeRemoteError adds the details an API error carries to its message.
func describeRemoteError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.ConflictingBookingID != "":
		return fmt.Errorf("%w (conflicting booking %s)", err, apiErr.ConflictingBookingID)
	case len(apiErr.Fields) > 0:
		return fmt.Errorf("%w (%s)", err, fieldErrors(apiErr.Fields))
	}
	return err
}
