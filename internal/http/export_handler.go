package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/export"
)

type bookingLister interface {
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
}

type roomLister interface {
	ListRooms(ctx context.Context, principal application.Principal) ([]application.Room, error)
}

// ExportHandler serves the booking list as downloadable files. It accepts the same
// filters as the booking list.
type ExportHandler struct {
	bookings  bookingLister
	rooms     roomLister
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewExportHandler(bookings bookingLister, rooms roomLister, logger *slog.Logger) *ExportHandler {
	base := defaultLogger(logger)
	return &ExportHandler{bookings: bookings, rooms: rooms, responder: newResponder(base), logger: base, now: time.Now}
}

func (h *ExportHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ExportHandler", operation, attrs...)
}

func (h *ExportHandler) ICS(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "ICS", "text/calendar; charset=utf-8", "agendamentos.ics", func(buf *bytes.Buffer, bookings []application.Booking, rooms []application.Room) error {
		return export.WriteICS(buf, bookings, rooms, h.now())
	})
}

func (h *ExportHandler) XLSX(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "XLSX", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "agendamentos.xlsx", func(buf *bytes.Buffer, bookings []application.Booking, rooms []application.Room) error {
		return export.WriteXLSX(buf, bookings, rooms)
	})
}

func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, operation, contentType, filename string, render func(*bytes.Buffer, []application.Booking, []application.Room) error) {
	if h == nil || h.bookings == nil || h.rooms == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID)

	bookings, err := h.bookings.ListBookings(r.Context(), listParamsFromQuery(r, principal))
	if err != nil {
		logger.ErrorContext(r.Context(), "export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	rooms, err := h.rooms.ListRooms(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	// Rendered in full first so a failure can still produce an error response.
	var buf bytes.Buffer
	if err := render(&buf, bookings, rooms); err != nil {
		logger.ErrorContext(r.Context(), "export render failed", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.ErrorContext(r.Context(), "failed to write export", "error", err)
		return
	}
	logger.With("result_count", len(bookings)).InfoContext(r.Context(), "bookings exported")
}
