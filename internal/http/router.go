package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/identity-api/internal/auth"
	"github.com/redmonkez12/identity-api/internal/config"
	"github.com/redmonkez12/identity-api/internal/httputil"
	"github.com/redmonkez12/identity-api/internal/logging"
	"github.com/redmonkez12/identity-api/internal/user"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is returned by /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	userHandler *user.Handler,
	authHandler *auth.Handler,
	authMiddleware *auth.Middleware,
	db Pinger,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.TrustedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth(db))

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Register)
		r.Post("/login", authHandler.Login)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Get("/", userHandler.GetByEmail)
			r.Put("/", userHandler.UpdateProfile)
			r.Delete("/{email}", userHandler.Delete)

			r.Post("/addresses", userHandler.RegisterAddress)
			r.Put("/addresses", userHandler.UpdateAddress)

			r.Post("/phones", userHandler.RegisterPhone)
			r.Put("/phones", userHandler.UpdatePhone)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running and the database is reachable
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func handleHealth(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			httputil.RespondJSON(w, HealthResponse{Status: "ok"}, http.StatusOK)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logging.GetLoggerFromContext(r.Context()).Error("health check failed", "error", err.Error())
			httputil.RespondJSON(w, HealthResponse{Status: "degraded", Database: "unreachable"}, http.StatusServiceUnavailable)
			return
		}

		httputil.RespondJSON(w, HealthResponse{Status: "ok", Database: "ok"}, http.StatusOK)
	}
}
