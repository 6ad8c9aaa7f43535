package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionguard/pkg/cleanup"
	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
	"github.com/dmitrymomot/sessionguard/pkg/jwt"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/requestid"
	"github.com/dmitrymomot/sessionguard/pkg/session"
	"github.com/dmitrymomot/sessionguard/pkg/throttle"
)

// DefaultAdminRole gates the /admin routes.
const DefaultAdminRole = "admin"

// Deps wires the router. Registry, Throttle, Scheduler and Verifier are required.
type Deps struct {
	Registry  *session.Registry
	Throttle  *throttle.Throttle
	Scheduler *cleanup.Scheduler
	Verifier  jwt.Verifier

	Transport    *session.HeaderTransport
	ClientIP     clientip.Resolver
	NewSessionID func() string
	AdminRole    string
	ReadyChecks  []func(context.Context) error
	Logger       *slog.Logger
}

func (d *Deps) defaults() error {
	if d.Registry == nil || d.Throttle == nil || d.Scheduler == nil || d.Verifier == nil {
		return errors.New("api: registry, throttle, scheduler and verifier are required")
	}
	if d.Transport == nil {
		d.Transport = session.NewHeaderTransport("")
	}
	if d.ClientIP == nil {
		d.ClientIP = clientip.FromHeaders()
	}
	if d.NewSessionID == nil {
		d.NewSessionID = uuid.NewString
	}
	if d.AdminRole == "" {
		d.AdminRole = DefaultAdminRole
	}
	if d.Logger == nil {
		d.Logger = logger.Discard()
	}
	d.Logger = d.Logger.With(logger.Component("api"))
	return nil
}

type handlers struct {
	Deps
}

// NewRouter builds the HTTP surface.
func NewRouter(deps Deps) (http.Handler, error) {
	if err := deps.defaults(); err != nil {
		return nil, err
	}
	h := &handlers{Deps: deps}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(clientip.Middleware(deps.ClientIP))
	r.Use(h.logRequests)

	r.Get("/healthz", httpserver.HealthCheckHandler(deps.Logger))
	r.Get("/readyz", httpserver.HealthCheckHandler(deps.Logger, deps.ReadyChecks...))

	r.With(fingerprint.Middleware).Post("/auth/login", h.login)

	r.Route("/session", func(r chi.Router) {
		r.With(deps.Registry.Middleware(deps.Transport, h.sessionError)).Post("/ping", h.ping)
		r.Post("/inactive", h.markInactive)
		r.Post("/close", h.closeSession)

		r.Group(func(r chi.Router) {
			r.Use(jwt.Middleware(deps.Verifier, nil, h.authError))
			r.Post("/logout", h.logout)
			r.Get("/list", h.listSessions)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(jwt.Middleware(deps.Verifier, nil, h.authError))
		r.Use(jwt.RequireRole(deps.AdminRole, h.authError))
		r.Get("/stats", h.stats)
		r.Post("/cleanup", h.runCleanup)
		r.Delete("/users/{userID}/sessions", h.closeUserSessions)
	})

	return r, nil
}

func (h *handlers) authError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, jwt.ErrForbidden):
		writeError(w, ErrForbidden, nil)
	case errors.Is(err, jwt.ErrExpiredToken):
		writeError(w, ErrTokenExpired, nil)
	default:
		writeError(w, ErrUnauthorized, nil)
	}
}

func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.Logger.DebugContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration("took", time.Since(start)),
		)
	})
}
