// Package server exposes the map renderer over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/boundary"
	"github.com/valpere/boundary_staticmap/internal/config"
	"github.com/valpere/boundary_staticmap/internal/logger"
	"github.com/valpere/boundary_staticmap/internal/mapgen"
	"github.com/valpere/boundary_staticmap/internal/service"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
	"github.com/valpere/boundary_staticmap/pkg/style"
)

// Renderer is the part of the rendering service the HTTP API needs
type Renderer interface {
	RenderArea(ctx context.Context, request boundary.Request, size staticmap.Size) (*service.Result, error)
	RenderFeature(ctx context.Context, f *geojson.Feature, areaType internal.AreaType, size staticmap.Size) (*service.Result, error)
	PlanArea(ctx context.Context, request boundary.Request, size staticmap.Size) (*mapgen.Plan, error)
	Styles() style.Table
}

// Server serves rendered maps, plans and operational endpoints
type Server struct {
	config      config.ServerConfig
	renderer    Renderer
	defaultSize staticmap.Size
	metrics     http.Handler
	logger      *zerolog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithMetricsHandler serves h at /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server; defaultSize applies when a request names no size
func New(cfg config.ServerConfig, renderer Renderer, defaultSize staticmap.Size, opts ...Option) *Server {
	s := &Server{
		config:      cfg,
		renderer:    renderer,
		defaultSize: defaultSize,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(Logging(s.logger))
	r.Use(Recover(s.logger))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/styles", s.handleStyles)
		r.Post("/maps/render", s.handleRenderFeature)
		r.Get("/maps/{areaType}/{code}", s.handleImage)
		r.Get("/maps/{areaType}/{code}/plan", s.handlePlan)
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("http listen")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("http shutdown")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
