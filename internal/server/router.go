package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vanshika/creditbridge/backend/internal/auth"
	"github.com/vanshika/creditbridge/backend/internal/logging"
)

const healthTimeout = 2 * time.Second

// Authenticator wraps handlers that require a verified caller.
type Authenticator interface {
	Middleware(onError auth.ErrorWriter) func(http.Handler) http.Handler
}

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	GraphHealth      HealthService
	ScorerHealth     HealthService
	API              *APIHandlers
	Auth             Authenticator
	RateLimiter      *CallerRateLimiter
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires the HTTP routes exposed by the backend API.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(loggingMiddleware(logger))

	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: deps.AllowCredentials,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		report, healthy := checkHealth(ctx, deps.GraphHealth, deps.ScorerHealth)
		status := http.StatusOK
		if !healthy {
			logging.FromContext(ctx, logger).Error("health probe failed", "error", report.Error)
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, status, report)
	})

	if deps.API != nil {
		r.Group(func(pr chi.Router) {
			if deps.Auth != nil {
				pr.Use(deps.Auth.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
					writeAppError(logging.FromContext(r.Context(), logger), w, err)
				}))
			}

			pr.Post("/profile", deps.API.saveProfile)
			pr.Get("/profile", deps.API.getProfile)
			pr.Get("/score", deps.API.getScore)
			pr.With(rateLimited(deps.RateLimiter)).Post("/score/calculate", deps.API.calculateScore)
		})
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	return r
}

func rateLimited(l *CallerRateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logging.FromContext(r.Context(), logger).Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
