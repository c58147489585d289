package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/accountkit/accountd/internal/auth"
	"github.com/accountkit/accountd/internal/user"
	"github.com/accountkit/accountd/pkg/httpserver"
	"github.com/accountkit/accountd/pkg/session"
)

// Handler bundles the dependencies of the HTTP surface.
type Handler struct {
	users    user.Store
	sessions *session.Manager
	resolver *auth.Resolver
	log      *slog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(users user.Store, sessions *session.Manager, resolver *auth.Resolver, log *slog.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		resolver: resolver,
		log:      log,
	}
}

// Router wires the routes. Every route runs behind the session middleware;
// authorization decisions happen per handler through the resolver. The
// optional health funcs become the readiness probe.
func (h *Handler) Router(ctx context.Context, health ...func(context.Context) error) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(ctx, h.log, health...))

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Middleware)

		r.Get("/user", h.currentUser)
		r.Post("/users", h.createUser)
		r.Get("/user/{id}", h.getUser)
		r.Delete("/user/{id}", h.deleteUser)

		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
	})

	return r
}
