package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/scheduler"
)

type bookingService interface {
	SaveBooking(ctx context.Context, params application.SaveBookingParams) (application.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
	DaySchedule(ctx context.Context, principal application.Principal, date string) (application.DaySchedule, error)
	Audit(ctx context.Context, principal application.Principal) (application.AuditReport, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base, now: time.Now}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// Create saves the posted booking. A body carrying an id updates that booking.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "Create", "", http.StatusCreated)
}

// Update saves the booking under the id in the path, creating it when absent.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "Update", chi.URLParam(r, "id"), http.StatusOK)
}

func (h *BookingHandler) save(w http.ResponseWriter, r *http.Request, operation, bookingID string, status int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), operation, "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input := req.toInput()
	if bookingID != "" {
		input.ID = bookingID
	}

	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "booking_id", input.ID)

	booking, err := h.service.SaveBooking(r.Context(), application.SaveBookingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		if application.IsBookingRejection(err) {
			logger.WarnContext(r.Context(), "booking rejected", "error", err, "error_kind", application.ErrorKind(err))
		} else {
			logger.ErrorContext(r.Context(), "booking save failed", "error", err, "error_kind", application.ErrorKind(err))
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking saved")
	h.responder.writeJSON(r.Context(), w, status, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "booking_id", bookingID)
	if err := h.service.DeleteBooking(r.Context(), principal, bookingID); err != nil {
		logger.ErrorContext(r.Context(), "booking delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := chi.URLParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	booking, err := h.service.GetBooking(r.Context(), principal, bookingID)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID, "booking_id", bookingID).ErrorContext(r.Context(), "booking lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// List filters by the date, room_id and q query parameters.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := listParamsFromQuery(r, principal)
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	bookings, err := h.service.ListBookings(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(bookings)).DebugContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

// Calendar returns the day layout for the date query parameter, today when omitted.
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.now().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, date); err != nil {
		h.log(r.Context(), "Calendar", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid calendar date", "date", date)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	logger := h.log(r.Context(), "Calendar", "principal_id", principal.UserID, "date", date)
	schedule, err := h.service.DaySchedule(r.Context(), principal, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "day schedule failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayScheduleDTO(schedule))
}

// Audit reports conflicts and integrity problems across all stored bookings.
func (h *BookingHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Audit", "principal_id", principal.UserID)
	report, err := h.service.Audit(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "audit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAuditDTO(report))
}

func listParamsFromQuery(r *http.Request, principal application.Principal) application.ListBookingsParams {
	q := r.URL.Query()
	return application.ListBookingsParams{
		Principal: principal,
		Date:      q.Get("date"),
		RoomID:    q.Get("room_id"),
		Query:     q.Get("q"),
	}
}

type bookingRequest struct {
	ID            string `json:"id"`
	RoomID        string `json:"room_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	RequesterName string `json:"requester_name"`
	Description   string `json:"description"`
}

func (r bookingRequest) toInput() application.BookingInput {
	return application.BookingInput{
		ID:            r.ID,
		RoomID:        r.RoomID,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		RequesterName: r.RequesterName,
		Description:   r.Description,
	}
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID            string `json:"id"`
	RoomID        string `json:"room_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	RequesterName string `json:"requester_name"`
	Description   string `json:"description,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

func toBookingDTO(b application.Booking) bookingDTO {
	return bookingDTO{
		ID:            b.ID,
		RoomID:        b.RoomID,
		Date:          b.Date,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		RequesterName: b.RequesterName,
		Description:   b.Description,
		CreatedAt:     b.CreatedAt,
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}

type dayScheduleDTO struct {
	Date      string            `json:"date"`
	StartHour int               `json:"start_hour"`
	EndHour   int               `json:"end_hour"`
	HourMarks []string          `json:"hour_marks"`
	Rooms     []roomScheduleDTO `json:"rooms"`
}

type roomScheduleDTO struct {
	Room     roomDTO            `json:"room"`
	Bookings []placedBookingDTO `json:"bookings"`
}

// placedBookingDTO carries offset and width as fractions of the business-hours window.
type placedBookingDTO struct {
	Booking bookingDTO `json:"booking"`
	Offset  float64    `json:"offset"`
	Width   float64    `json:"width"`
}

func toDayScheduleDTO(s application.DaySchedule) dayScheduleDTO {
	out := dayScheduleDTO{
		Date:      s.Date,
		StartHour: s.Window.StartHour,
		EndHour:   s.Window.EndHour,
		HourMarks: s.HourMarks,
		Rooms:     make([]roomScheduleDTO, 0, len(s.Rooms)),
	}
	for _, row := range s.Rooms {
		placed := make([]placedBookingDTO, 0, len(row.Bookings))
		for _, pb := range row.Bookings {
			placed = append(placed, placedBookingDTO{
				Booking: toBookingDTO(pb.Booking),
				Offset:  pb.Placement.OffsetFraction,
				Width:   pb.Placement.WidthFraction,
			})
		}
		out.Rooms = append(out.Rooms, roomScheduleDTO{Room: toRoomDTO(row.Room), Bookings: placed})
	}
	return out
}

type auditDTO struct {
	Clean             bool          `json:"clean"`
	Conflicts         []conflictDTO `json:"conflicts"`
	OrphanedBookings  []bookingDTO  `json:"orphaned_bookings"`
	MalformedBookings []bookingDTO  `json:"malformed_bookings"`
}

type conflictDTO struct {
	BookingID     string `json:"booking_id"`
	WithBookingID string `json:"with_booking_id"`
	RoomID        string `json:"room_id"`
	Date          string `json:"date"`
}

func toAuditDTO(report application.AuditReport) auditDTO {
	out := auditDTO{
		Clean:             report.Clean(),
		Conflicts:         make([]conflictDTO, 0, len(report.Conflicts)),
		OrphanedBookings:  toBookingDTOs(report.OrphanedBookings),
		MalformedBookings: toBookingDTOs(report.MalformedBookings),
	}
	for _, c := range report.Conflicts {
		out.Conflicts = append(out.Conflicts, toConflictDTO(c))
	}
	return out
}

func toConflictDTO(c scheduler.Conflict) conflictDTO {
	return conflictDTO{
		BookingID:     c.BookingID,
		WithBookingID: c.WithBookingID,
		RoomID:        c.RoomID,
		Date:          c.Date,
	}
}
