package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/agency-dashboard/api"
	"github.com/frahmantamala/agency-dashboard/internal/access"
	"github.com/frahmantamala/agency-dashboard/internal/auth"
	"github.com/frahmantamala/agency-dashboard/internal/client"
	"github.com/frahmantamala/agency-dashboard/internal/cron"
	"github.com/frahmantamala/agency-dashboard/internal/csrf"
	"github.com/frahmantamala/agency-dashboard/internal/integration"
	"github.com/frahmantamala/agency-dashboard/internal/metrics"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/internal/transport/middleware"
	"github.com/frahmantamala/agency-dashboard/internal/transport/swagger"
	"github.com/frahmantamala/agency-dashboard/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers groups the HTTP handlers mounted under /api/v1. A nil handler
// leaves its routes unregistered.
type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	Client      *client.Handler
	Integration *integration.Handler
	Cron        *cron.Handler
}

// Guards are the request gates shared by several route groups.
type Guards struct {
	Sessions *session.Manager
	CSRF     *csrf.Guard
	Access   *access.Controller
	Cron     *cron.Guard
}

type Options struct {
	TrustProxy     bool
	AllowedOrigins string
	MetricsEnabled bool
	MetricsPath    string
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, g Guards, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	if opts.TrustProxy {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.MetricsEnabled {
		router.Use(metrics.Instrument)
		router.Handle(opts.MetricsPath, metrics.Handler())
	}

	// Serve the OpenAPI document at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.LoggingMiddleware(logger))

		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Scheduled jobs authenticate with the cron key, not a session.
		if h.Cron != nil && g.Cron != nil {
			r.Route("/cron", func(cr chi.Router) {
				cr.Use(g.Cron.Middleware)
				cr.Post("/sessions/purge", h.Cron.PurgeSessions)
			})
		}

		if g.Sessions == nil {
			return
		}

		r.Group(func(sr chi.Router) {
			sr.Use(g.Sessions.Middleware)

			// Auth routes
			if h.Auth != nil {
				sr.Post("/auth/login", h.Auth.Login)
				sr.Get("/auth/session", h.Auth.Session)
				sr.With(g.CSRF.AuthenticatedMiddleware).Post("/auth/logout", h.Auth.Logout)
			}

			// Protected routes that require authentication
			sr.Group(func(pr chi.Router) {
				pr.Use(g.Sessions.RequireLogin)
				pr.Use(g.CSRF.Middleware)

				// Current user
				if h.User != nil {
					pr.Get("/users/me", h.User.GetCurrentUser)
				}

				if h.Client != nil {
					pr.Get("/clients", h.Client.ListClients)
				}

				pr.Route("/clients/{clientID}", func(cr chi.Router) {
					if h.Client != nil {
						cr.With(g.Access.RequireClientAccess("clientID")).Get("/", h.Client.GetClient)

						cr.Group(func(gr chi.Router) {
							gr.Use(g.Access.DenyClientUsers())
							gr.Use(g.Access.RequireCapability(access.ManageUsers))
							gr.Post("/grants", h.Client.GrantAccess)
							gr.Delete("/grants/{userID}", h.Client.RevokeAccess)
						})
					}

					if h.Integration != nil {
						cr.Group(func(ir chi.Router) {
							ir.Use(g.Access.DenyClientUsers())
							ir.Use(g.Access.RequireClientAccess("clientID"))
							ir.Get("/integrations", h.Integration.ListIntegrations)
							ir.With(g.Access.RequireCapability(access.ManageIntegrations)).
								Put("/integrations/{provider}", h.Integration.PutCredential)
						})
					}
				})
			})
		})
	})
}
