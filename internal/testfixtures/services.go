package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/persistence/adapter"
	"github.com/example/room-scheduler/internal/persistence/memory"
	"github.com/example/room-scheduler/internal/scheduler"
	"github.com/example/room-scheduler/internal/session"
)

// SessionTTL is the session lifetime used by Stack.
const SessionTTL = time.Hour

// Stack is the full application layer over one store, wired like the server does it.
type Stack struct {
	Store  persistence.KeyValueStore
	Repos  *adapter.Repositories
	Broker *application.EventBroker
	Clock  *Clock
	IDs    *IDGenerator
	Signer *session.Signer
	Logger *slog.Logger

	Users    *application.UserService
	Auth     *application.AuthService
	Rooms    *application.RoomService
	Bookings *application.BookingService
}

type stackConfig struct {
	store  persistence.KeyValueStore
	clock  *Clock
	ids    *IDGenerator
	window scheduler.Window
	logger *slog.Logger
}

// StackOption configures NewStack.
type StackOption func(*stackConfig)

// WithStore backs the stack with store instead of a fresh memory store.
func WithStore(store persistence.KeyValueStore) StackOption {
	return func(c *stackConfig) { c.store = store }
}

// WithClock overrides the stack clock.
func WithClock(clock *Clock) StackOption {
	return func(c *stackConfig) { c.clock = clock }
}

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(ids *IDGenerator) StackOption {
	return func(c *stackConfig) { c.ids = ids }
}

// WithWindow overrides the day calendar window.
func WithWindow(window scheduler.Window) StackOption {
	return func(c *stackConfig) { c.window = window }
}

// WithLogger sends service logs to logger instead of discarding them.
func WithLogger(logger *slog.Logger) StackOption {
	return func(c *stackConfig) { c.logger = logger }
}

// NewStack builds every service over a memory store with a fixed clock and sequential ids.
func NewStack(tb testing.TB, opts ...StackOption) *Stack {
	tb.Helper()

	cfg := stackConfig{window: scheduler.DefaultWindow()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.New()
	}
	if cfg.clock == nil {
		cfg.clock = NewClock(time.Time{})
	}
	if cfg.ids == nil {
		cfg.ids = NewIDGenerator("id")
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	now := cfg.clock.NowFunc()
	ids := cfg.ids.NextFunc()
	signer, err := session.NewSigner("test-secret", now)
	if err != nil {
		tb.Fatalf("NewSigner: %v", err)
	}

	repos := adapter.NewFromStore(cfg.store)
	broker := application.NewEventBroker()
	hasher := application.NewArgon2idHasher(FastArgon2idParams)

	return &Stack{
		Store:  cfg.store,
		Repos:  repos,
		Broker: broker,
		Clock:  cfg.clock,
		IDs:    cfg.ids,
		Signer: signer,
		Logger: cfg.logger,

		Users:    application.NewUserService(repos, hasher, ids),
		Auth:     application.NewAuthServiceWithLogger(repos, repos, signer, hasher, ids, now, SessionTTL, cfg.logger),
		Rooms:    application.NewRoomServiceWithLogger(repos, ids, now, cfg.logger, application.WithRoomEvents(broker)),
		Bookings: application.NewBookingServiceWithLogger(repos, repos, ids, now, cfg.logger, application.WithEventBroker(broker), application.WithWindow(cfg.window)),
	}
}

// ImportUsers stores one fixture account per role.
func (s *Stack) ImportUsers(tb testing.TB) map[application.Role]application.User {
	tb.Helper()
	users := make(map[application.Role]application.User, len(Roles))
	for _, role := range Roles {
		user, err := s.Users.Import(context.Background(), UserInput(role))
		if err != nil {
			tb.Fatalf("Import(%s): %v", role, err)
		}
		users[role] = user
	}
	return users
}

// Book saves a booking fixture as a common user and fails the test on error.
func (s *Stack) Book(tb testing.TB, opts ...BookingOption) application.Booking {
	tb.Helper()
	booking, err := s.Bookings.SaveBooking(context.Background(), application.SaveBookingParams{
		Principal: Principal(application.RoleCommon),
		Input:     BookingInput(opts...),
	})
	if err != nil {
		tb.Fatalf("SaveBooking: %v", err)
	}
	return booking
}
