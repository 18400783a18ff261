package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"emotioncrypt/api/internal/api/handlers"
	auth_middleware "emotioncrypt/api/internal/api/middleware"
)

// RouterConfig defines the strict dependencies required to build the API routing tree.
type RouterConfig struct {
	AllowedOrigins  []string
	CipherHandler   *handlers.CipherHandler
	EnvelopeHandler *handlers.EnvelopeHandler // nil when persistence is off
	AuditHandler    *handlers.AuditHandler    // nil when persistence is off
	AuthHandler     *handlers.AuthHandler
	EventsHandler   *handlers.EventsHandler
	AuthMiddleware  *auth_middleware.AuthMiddleware
	Logger          *slog.Logger
}

// NewRouter constructs the Chi multiplexer, attaches global middleware, and wires all endpoints.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// =========================================================================
	// 1. Global Gateway Middleware Pipeline
	// =========================================================================

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(auth_middleware.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Limit all incoming JSON requests to 1 Megabyte max (OOM protection)
	r.Use(auth_middleware.MaxBytes(1_048_576))

	// In-memory token bucket rate limiting
	r.Use(cfg.AuthMiddleware.RateLimit)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// =========================================================================
	// 2. API v1 Routing Tree
	// =========================================================================

	r.Route("/api/v1", func(r chi.Router) {

		// ---------------------------------------------------------------------
		// Public Routes (rate-limited, no auth)
		// ---------------------------------------------------------------------
		r.Group(func(r chi.Router) {
			r.Post("/auth/token", cfg.AuthHandler.IssueToken)
			r.Post("/encrypt", cfg.CipherHandler.Encrypt)
			r.Post("/decrypt", cfg.CipherHandler.Decrypt)
			r.Post("/analyze", cfg.CipherHandler.Analyze)
		})

		// ---------------------------------------------------------------------
		// Protected Routes (Requires a Valid JWT)
		// ---------------------------------------------------------------------
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthMiddleware.RequireAuthentication)

			if cfg.EnvelopeHandler != nil {
				r.Route("/envelopes", func(r chi.Router) {
					r.With(cfg.AuthMiddleware.RequireScope("envelopes:read")).
						Get("/", cfg.EnvelopeHandler.List)
					r.With(cfg.AuthMiddleware.RequireScope("envelopes:read")).
						Get("/{id}", cfg.EnvelopeHandler.GetByID)
				})
			}

			if cfg.AuditHandler != nil {
				r.With(cfg.AuthMiddleware.RequireScope("audit:read")).
					Get("/audit", cfg.AuditHandler.List)
			}

			// Live emotion-event feed (no plaintext ever crosses this wire)
			r.With(cfg.AuthMiddleware.RequireScope("events:read")).
				Get("/ws/events", cfg.EventsHandler.Stream)
		})
	})

	r.Get("/health", handlers.Health)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	return r
}
