package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Rooms    *RoomHandler
	Bookings *BookingHandler
	Exports  *ExportHandler
	Events   *EventHub

	// Sessions guards every route except /healthz, /login and /logout. Nil disables authentication.
	Sessions       SessionValidator
	AllowedOrigins []string
	Logger         *slog.Logger
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Session-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Auth != nil {
		r.Post("/login", cfg.Auth.Login)
		r.Post("/logout", cfg.Auth.Logout)
	}

	r.Group(func(r chi.Router) {
		if cfg.Sessions != nil {
			r.Use(RequireSession(cfg.Sessions, logger))
		}

		if cfg.Auth != nil {
			r.Get("/me", cfg.Auth.Me)
		}

		if cfg.Rooms != nil {
			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", cfg.Rooms.List)
				r.Post("/", cfg.Rooms.Create)
				r.Get("/{id}", cfg.Rooms.Get)
				r.Put("/{id}", cfg.Rooms.Update)
				r.Delete("/{id}", cfg.Rooms.Delete)
			})
		}

		if cfg.Bookings != nil {
			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", cfg.Bookings.List)
				r.Post("/", cfg.Bookings.Create)
				r.Get("/{id}", cfg.Bookings.Get)
				r.Put("/{id}", cfg.Bookings.Update)
				r.Delete("/{id}", cfg.Bookings.Delete)
			})
			r.Get("/calendar", cfg.Bookings.Calendar)
			r.Get("/audit", cfg.Bookings.Audit)
		}

		if cfg.Users != nil {
			r.Route("/users", func(r chi.Router) {
				r.Get("/", cfg.Users.List)
				r.Post("/", cfg.Users.Create)
				r.Put("/{id}", cfg.Users.Update)
				r.Delete("/{id}", cfg.Users.Delete)
			})
		}

		if cfg.Exports != nil {
			r.Get("/export/bookings.ics", cfg.Exports.ICS)
			r.Get("/export/bookings.xlsx", cfg.Exports.XLSX)
		}

		if cfg.Events != nil {
			r.Get("/events", cfg.Events.Stream)
		}
	})

	return r
}
