package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/room-scheduler/internal/application"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = (eventPongWait * 9) / 10
	eventBuffer     = 64
)

type eventSource interface {
	Subscribe(observer application.Observer) func()
}

// EventHub streams store mutations to websocket clients. Clients that fall behind by
// more than eventBuffer messages are disconnected.
type EventHub struct {
	upgrader    websocket.Upgrader
	logger      *slog.Logger
	unsubscribe func()

	mu      sync.Mutex
	clients map[*eventClient]struct{}
	closed  bool
}

type eventClient struct {
	conn        *websocket.Conn
	send        chan []byte
	principalID string
}

// NewEventHub subscribes to source. allowedOrigins follows the CORS configuration; "*" accepts any origin.
func NewEventHub(source eventSource, allowedOrigins []string, logger *slog.Logger) *EventHub {
	h := &EventHub{
		logger:  defaultLogger(logger),
		clients: make(map[*eventClient]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	h.unsubscribe = source.Subscribe(h.broadcast)
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Close unsubscribes from the source and disconnects every client.
func (h *EventHub) Close() {
	h.unsubscribe()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Stream upgrades the request and keeps the connection registered until the client goes away.
func (h *EventHub) Stream(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := handlerLogger(r.Context(), h.logger, "EventHub", "Stream", "principal_id", principal.UserID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := &eventClient{conn: conn, send: make(chan []byte, eventBuffer), principalID: principal.UserID}
	if !h.register(client) {
		conn.Close()
		return
	}
	logger.InfoContext(r.Context(), "event stream opened")

	go client.writeLoop()
	client.readLoop()

	h.unregister(client)
	logger.InfoContext(r.Context(), "event stream closed")
}

func (h *EventHub) register(c *eventClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *EventHub) unregister(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *EventHub) broadcast(event application.Event) {
	payload, err := json.Marshal(toEventDTO(event))
	if err != nil {
		h.logger.Error("failed to encode event", "error", err, "kind", event.Kind)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping slow event client", "principal_id", c.principalID)
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// readLoop discards client messages; it only exists to process control frames and notice disconnects.
func (c *eventClient) readLoop() {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(eventPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *eventClient) writeLoop() {
	ticker := time.NewTicker(eventPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type eventDTO struct {
	Type       string      `json:"type"`
	BookingID  string      `json:"booking_id,omitempty"`
	RoomID     string      `json:"room_id,omitempty"`
	Date       string      `json:"date,omitempty"`
	Total      int         `json:"total"`
	OccurredAt string      `json:"occurred_at"`
	Booking    *bookingDTO `json:"booking,omitempty"`
	Room       *roomDTO    `json:"room,omitempty"`
}

func toEventDTO(event application.Event) eventDTO {
	out := eventDTO{
		Type:       string(event.Kind),
		BookingID:  event.BookingID,
		RoomID:     event.RoomID,
		Date:       event.Date,
		Total:      event.Total,
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if event.Booking != nil {
		dto := toBookingDTO(*event.Booking)
		out.Booking = &dto
	}
	if event.Room != nil {
		dto := toRoomDTO(*event.Room)
		out.Room = &dto
	}
	return out
}
