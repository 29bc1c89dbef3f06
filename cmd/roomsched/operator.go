package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/room-scheduler/internal/application"
)

// withStore opens the configured store for a one-shot operator command.
func (a *App) withStore(ctx context.Context, fn func(*services) error) error {
	cfg, logger, err := a.configure(a.errOut)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	runErr := fn(newServices(store, cfg, nil, time.Now, logger))
	return errors.Join(runErr, closeStore())
}

func (a *App) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts directly in the store",
	}
	cmd.AddCommand(a.userCreateCmd())
	return cmd
}

func (a *App) userCreateCmd() *cobra.Command {
	var input struct {
		name, email, password, role string
	}

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create an account",
		Example: `  roomsched user create --name "Ana Lima" --email ana@example.com --password 'segredo123' --role sec`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(svc *services) error {
				user, err := svc.users.Import(cmd.Context(), application.UserInput{
					Name:     input.name,
					Email:    input.email,
					Password: input.password,
					Role:     application.Role(strings.ToLower(input.role)),
				})
				if err != nil {
					return describeError(err)
				}
				a.printf("created user %s <%s> role=%s id=%s\n", user.Name, user.Email, user.Role, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input.name, "name", "", "display name")
	cmd.Flags().StringVar(&input.email, "email", "", "login email")
	cmd.Flags().StringVar(&input.password, "password", "", "initial password")
	cmd.Flags().StringVar(&input.role, "role", string(application.RoleCommon), "admin, sec or common")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *App) auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check stored bookings for overlaps, unknown rooms and bad times",
		Long: `Inspect the configured store directly and report integrity problems.

Exits with an error when the audit is not clean.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(svc *services) error {
				report, err := svc.bookings.Audit(cmd.Context(), systemPrincipal)
				if err != nil {
					return err
				}
				a.setColor()
				writeAudit(a.out, report)
				if !report.Clean() {
					return errAuditFailed
				}
				return nil
			})
		},
	}
}

var errAuditFailed = errors.New("audit found problems")

func writeAudit(w io.Writer, report application.AuditReport) {
	if report.Clean() {
		fmt.Fprintln(w, colorOK.Sprint("no problems found"))
		return
	}
	if len(report.Conflicts) > 0 {
		fmt.Fprintln(w, colorError.Sprintf("Conflicts (%d)", len(report.Conflicts)))
		for _, c := range report.Conflicts {
			fmt.Fprintf(w, "  %s room %s: %s overlaps %s\n", c.Date, c.RoomID, c.BookingID, c.WithBookingID)
		}
	}
	writeBookingSection(w, "Unknown room", report.OrphanedBookings)
	writeBookingSection(w, "Malformed times", report.MalformedBookings)
}

func writeBookingSection(w io.Writer, title string, bookings []application.Booking) {
	if len(bookings) == 0 {
		return
	}
	fmt.Fprintln(w, colorHeader.Sprintf("%s (%d)", title, len(bookings)))
	for _, b := range bookings {
		fmt.Fprintf(w, "  %s %s room %s %s-%s %s\n", b.ID, b.Date, b.RoomID, b.StartTime, b.EndTime, b.RequesterName)
	}
}

// fieldErrors renders a field error map in a stable order.
func fieldErrors(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}

// describeError appends field level details to validation failures.
func describeError(err error) error {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) && vErr.HasErrors() {
		return fmt.Errorf("%w (%s)", err, fieldErrors(vErr.FieldErrors))
	}
	return err
}
