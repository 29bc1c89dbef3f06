package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/config"
	httptransport "github.com/example/room-scheduler/internal/http"
	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/persistence/adapter"
	"github.com/example/room-scheduler/internal/persistence/memory"
	"github.com/example/room-scheduler/internal/persistence/redis"
	"github.com/example/room-scheduler/internal/persistence/sqlite"
	"github.com/example/room-scheduler/internal/persistence/sqlite/migration"
	"github.com/example/room-scheduler/internal/session"
)

// systemPrincipal is used by operator commands that bypass the API.
var systemPrincipal = application.Principal{UserID: "system", Name: "roomsched", Role: application.RoleAdministrator}

// openStore connects the backend selected by cfg.Storage. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.KeyValueStore, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return memory.New(), func() error { return nil }, nil
	case config.StorageSQLite:
		sqlCfg := migration.DefaultSQLiteConfig(cfg.SQLiteDSN)
		if cfg.SQLiteDSN == ":memory:" {
			sqlCfg = migration.InMemorySQLiteConfig()
		}
		store, err := sqlite.Open(ctx, sqlCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store.Close, nil
	case config.StorageRedis:
		store, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}

func newSigner(secret string) (application.TokenSigner, error) {
	signer, err := session.NewSigner(secret, time.Now)
	if err != nil {
		return nil, fmt.Errorf("session signer: %w", err)
	}
	return signer, nil
}

// services is the application layer over one store and one event broker.
type services struct {
	broker   *application.EventBroker
	users    *application.UserService
	auth     *application.AuthService
	rooms    *application.RoomService
	bookings *application.BookingService
}

func newServices(store persistence.KeyValueStore, cfg config.Config, signer application.TokenSigner, now func() time.Time, logger *slog.Logger) *services {
	repos := adapter.NewFromStore(store)
	broker := application.NewEventBroker()
	hasher := application.NewArgon2idHasher(application.DefaultArgon2idParams)
	ids := uuid.NewString

	return &services{
		broker: broker,
		users:  application.NewUserService(repos, hasher, ids),
		auth:   application.NewAuthServiceWithLogger(repos, repos, signer, hasher, ids, now, cfg.SessionTTL, logger),
		rooms: application.NewRoomServiceWithLogger(repos, ids, now, logger,
			application.WithRoomEvents(broker),
			application.WithMaxCapacity(cfg.MaxRoomCapacity),
		),
		bookings: application.NewBookingServiceWithLogger(repos, repos, ids, now, logger,
			application.WithEventBroker(broker),
			application.WithWindow(cfg.BusinessHours),
		),
	}
}

// bootstrapAdmin creates the configured administrator on an empty user collection.
func (s *services) bootstrapAdmin(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	user, created, err := s.users.Bootstrap(ctx, "", cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap administrator: %w", err)
	}
	if created {
		logger.InfoContext(ctx, "administrator account created", "user_id", user.ID, "email", user.Email)
	}
	return nil
}

// server bundles the HTTP handler with the resources it owns.
type server struct {
	handler    http.Handler
	services   *services
	hub        *httptransport.EventHub
	closeStore func() error
}

func (s *server) Close() error {
	s.hub.Close()
	return s.closeStore()
}

func newServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*server, error) {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	signer, err := newSigner(cfg.SessionSecret)
	if err != nil {
		return nil, errors.Join(err, closeStore())
	}

	svc := newServices(store, cfg, signer, time.Now, logger)
	if err := svc.bootstrapAdmin(ctx, cfg, logger); err != nil {
		return nil, errors.Join(err, closeStore())
	}

	hub := httptransport.NewEventHub(svc.broker, cfg.AllowedOrigins, logger)
	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(svc.auth, logger),
		Users:          httptransport.NewUserHandler(svc.users, logger),
		Rooms:          httptransport.NewRoomHandler(svc.rooms, logger),
		Bookings:       httptransport.NewBookingHandler(svc.bookings, logger),
		Exports:        httptransport.NewExportHandler(svc.bookings, svc.rooms, logger),
		Events:         hub,
		Sessions:       svc.auth,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	return &server{handler: handler, services: svc, hub: hub, closeStore: closeStore}, nil
}
