// Package server assembles the HTTP router and owns the listener
// lifecycle. Handlers live in the handlers subpackage; cross-cutting
// concerns in middleware.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/Yass5002/Lyrebird/internal/errors"
	"github.com/Yass5002/Lyrebird/internal/observability"
	"github.com/Yass5002/Lyrebird/internal/server/handlers"
	"github.com/Yass5002/Lyrebird/internal/server/middleware"
)

// Options are the transport-level server settings.
type Options struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	AllowedOrigins     []string
	CloneRatePerSecond float64
	CloneRateBurst     int
	ServiceName        string
	Version            string
	ModelName          string
}

// Server is the HTTP front end.
type Server struct {
	opts   Options
	router chi.Router
}

// New builds the router around the handler service. Synthesis submission
// routes carry an extra rate limit; everything else is bounded by the
// dispatcher queue and the engine itself.
func New(opts Options, svc *handlers.Service) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteEnvelope(w, http.StatusNotFound, apperrors.HTTPErrorBody{
			Code:      apperrors.CodeNotFound,
			Message:   "route not found",
			RequestID: apperrors.RequestIDFromContext(req.Context()),
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteEnvelope(w, http.StatusMethodNotAllowed, apperrors.HTTPErrorBody{
			Code:      apperrors.CodeMethodNotAllowed,
			Message:   "method not allowed",
			RequestID: apperrors.RequestIDFromContext(req.Context()),
		})
	})

	r.Get("/", svc.Root)
	r.Get("/version", handlers.Version(opts.ServiceName, opts.Version, opts.ModelName))

	r.Get("/health", handlers.HealthHandler)
	r.Get("/health/live", handlers.LivenessHandler)
	r.Get("/health/ready", handlers.ReadinessHandler)
	r.Get("/health/startup", handlers.StartupHandler)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", svc.APIHealth)
		api.Get("/resources", svc.Resources)
		api.Get("/languages", svc.Languages)
		api.Get("/examples", svc.Examples)

		api.Group(func(clone chi.Router) {
			if opts.CloneRatePerSecond > 0 {
				burst := opts.CloneRateBurst
				if burst <= 0 {
					burst = 1
				}
				clone.Use(middleware.Throttle(opts.CloneRatePerSecond, burst))
			}
			clone.Post("/clone", svc.Clone)
			clone.Post("/clone/async", svc.CloneAsync)
		})

		api.Get("/jobs", svc.ListJobs)
		api.Get("/jobs/{jobID}", svc.JobStatus)
		api.Delete("/jobs/{jobID}", svc.DeleteJob)

		api.Get("/audio/{filename}", svc.Audio)

		api.Post("/admin/cleanup", svc.AdminCleanup)
	})

	return &Server{opts: opts, router: r}
}

// Handler exposes the assembled router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port reports the configured listen port.
func (s *Server) Port() int {
	return s.opts.Port
}

// Start serves until ctx is canceled, then drains connections within the
// shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port),
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	observability.Logger.Info("http server shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
