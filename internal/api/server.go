// Package api serves the ranking engine over HTTP
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/uosnotice/programrank/internal/config"
	"github.com/uosnotice/programrank/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API
type Server struct {
	svc     *service.Service
	config  config.ServerConfig
	version string
	logger  zerolog.Logger
}

// New creates a Server
func New(svc *service.Service, cfg config.ServerConfig, version string, logger zerolog.Logger) *Server {
	return &Server{
		svc:     svc,
		config:  cfg,
		version: version,
		logger:  logger,
	}
}

// Handler builds the router with its middleware stack
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(s.config.CORSOrigins))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.config.RateLimitRequests, s.config.RateLimitWindow()))
		r.Use(Metrics)

		r.Post("/recommend", s.handleRecommend)
		r.Post("/explain/{programID}", s.handleExplain)
		r.Get("/programs", s.handleListPrograms)
		r.Get("/programs/{programID}", s.handleGetProgram)
		r.Get("/categories", s.handleCategories)
		r.Get("/stats", s.handleStats)
		r.Post("/dedup", s.handleDedup)
	})

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("HTTP server shutting down")
	return srv.Shutdown(shutdownCtx)
}
