// Package client is a typed client for the room scheduler HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/example/room-scheduler/internal/application"
)

const defaultTimeout = 15 * time.Second

// Client talks to a running API server. It is safe for concurrent use once configured.
type Client struct {
	http *resty.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithToken authenticates every request with a session token.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.http.SetAuthToken(token)
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(timeout) }
}

// New returns a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response. It unwraps to the matching application sentinel
// so callers can test it with errors.Is.
type APIError struct {
	Status               int
	Code                 string
	Message              string
	Fields               map[string]string
	ConflictingBookingID string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case "BOOKING_CONFLICT":
		return application.ErrSchedulingConflict
	case "MISSING_FIELD":
		return application.ErrMissingField
	case "INVALID_TIME_RANGE":
		return application.ErrInvalidTimeRange
	case "AUTH_INVALID_CREDENTIALS":
		return application.ErrInvalidCredentials
	case "AUTH_SESSION_EXPIRED":
		return application.ErrSessionExpired
	case "ALREADY_EXISTS":
		return application.ErrAlreadyExists
	}
	switch e.Status {
	case http.StatusForbidden:
		return application.ErrUnauthorized
	case http.StatusNotFound:
		return application.ErrNotFound
	}
	return nil
}

type errorBody struct {
	ErrorCode            string            `json:"error_code"`
	Message              string            `json:"message"`
	Errors               map[string]string `json:"errors"`
	ConflictingBookingID string            `json:"conflicting_booking_id"`
}

func (c *Client) request(ctx context.Context, result any) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if result != nil {
		req.SetResult(result)
	}
	return req
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode(), Message: resp.Status()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Code = body.ErrorCode
		if body.Message != "" {
			apiErr.Message = body.Message
		}
		apiErr.Fields = body.Errors
		apiErr.ConflictingBookingID = body.ConflictingBookingID
	}
	return apiErr
}

// Login authenticates and makes the client use the issued token from then on.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var out Session
	resp, err := c.request(ctx, &out).
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/login")
	if err := check(resp, err); err != nil {
		return Session{}, err
	}
	c.http.SetAuthToken(out.Token)
	return out, nil
}

// Logout revokes the current token.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.request(ctx, nil).Post("/logout")
	return check(resp, err)
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	resp, err := c.request(ctx, &out).Get("/me")
	if err := check(resp, err); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// ListRooms returns the room catalog sorted by name.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var out struct {
		Rooms []Room `json:"rooms"`
	}
	resp, err := c.request(ctx, &out).Get("/rooms")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

// ListBookings returns bookings matching filter, newest first.
func (c *Client) ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	var out struct {
		Bookings []Booking `json:"bookings"`
	}
	req := c.request(ctx, &out)
	if filter.Date != "" {
		req.SetQueryParam("date", filter.Date)
	}
	if filter.RoomID != "" {
		req.SetQueryParam("room_id", filter.RoomID)
	}
	if filter.Query != "" {
		req.SetQueryParam("q", filter.Query)
	}
	resp, err := req.Get("/bookings")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

// SaveBooking creates the booking when b.ID is empty and replaces it otherwise.
func (c *Client) SaveBooking(ctx context.Context, b Booking) (Booking, error) {
	var out struct {
		Booking Booking `json:"booking"`
	}
	req := c.request(ctx, &out).SetBody(b)

	var (
		resp *resty.Response
		err  error
	)
	if b.ID == "" {
		resp, err = req.Post("/bookings")
	} else {
		resp, err = req.SetPathParam("id", b.ID).Put("/bookings/{id}")
	}
	if err := check(resp, err); err != nil {
		return Booking{}, err
	}
	return out.Booking, nil
}

// DeleteBooking removes a booking. Unknown ids succeed.
func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("client: booking id is required")
	}
	resp, err := c.request(ctx, nil).SetPathParam("id", id).Delete("/bookings/{id}")
	return check(resp, err)
}

// DaySchedule fetches the day calendar for date, or today when date is empty.
func (c *Client) DaySchedule(ctx context.Context, date string) (DaySchedule, error) {
	var out DaySchedule
	req := c.request(ctx, &out)
	if date != "" {
		req.SetQueryParam("date", date)
	}
	resp, err := req.Get("/calendar")
	if err := check(resp, err); err != nil {
		return DaySchedule{}, err
	}
	return out, nil
}

// Audit runs the server-side booking audit.
func (c *Client) Audit(ctx context.Context) (AuditReport, error) {
	var out AuditReport
	resp, err := c.request(ctx, &out).Get("/audit")
	if err := check(resp, err); err != nil {
		return AuditReport{}, err
	}
	return out, nil
}
