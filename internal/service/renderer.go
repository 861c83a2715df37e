// internal/service/renderer.go - Boundary to image rendering service
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/boundary"
	"github.com/valpere/boundary_staticmap/internal/imagecache"
	"github.com/valpere/boundary_staticmap/internal/logger"
	"github.com/valpere/boundary_staticmap/internal/mapgen"
	"github.com/valpere/boundary_staticmap/internal/metrics"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
	"github.com/valpere/boundary_staticmap/pkg/style"
)

// ErrNoSource is returned by the area operations when no boundary source is configured
var ErrNoSource = errors.New("no boundary source configured")

// Result is one rendered map image together with the plan that produced it
type Result struct {
	Image  []byte
	Plan   *mapgen.Plan
	Cached bool
}

// Renderer resolves boundaries, plans their static map URL and fetches the
// image through an optional cache. It is safe for concurrent use.
type Renderer struct {
	source    boundary.Source
	generator *mapgen.Generator
	cache     imagecache.Cache
	metrics   *metrics.Pipeline
	logger    *zerolog.Logger
	styles    atomic.Value
}

// Option configures a Renderer
type Option func(*Renderer)

// WithCache stores rendered images in c
func WithCache(c imagecache.Cache) Option {
	return func(r *Renderer) { r.cache = c }
}

// WithMetrics records cache hits and misses into p
func WithMetrics(p *metrics.Pipeline) Option {
	return func(r *Renderer) { r.metrics = p }
}

// WithLogger sets the logger for cache warnings
func WithLogger(l *zerolog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// New creates a renderer. source may be nil when only features are rendered.
func New(source boundary.Source, generator *mapgen.Generator, styles style.Table, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		source:    source,
		generator: generator,
		cache:     imagecache.None{},
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.SetStyles(styles); err != nil {
		return nil, err
	}
	return r, nil
}

// Styles returns the style table currently in use
func (r *Renderer) Styles() style.Table {
	t, _ := r.styles.Load().(style.Table)
	return t
}

// SetStyles validates and swaps the style table; in-flight renders keep the old one
func (r *Renderer) SetStyles(t style.Table) error {
	if len(t) == 0 {
		return internal.NewError(internal.ErrorCodeConfig, "style table is empty", nil)
	}
	if err := t.Validate(); err != nil {
		return internal.NewError(internal.ErrorCodeConfig, "invalid style table", err)
	}
	r.styles.Store(t)
	return nil
}

// Descriptor returns the style of an area type
func (r *Renderer) Descriptor(areaType internal.AreaType) (style.Descriptor, error) {
	d, ok := r.Styles().Lookup(areaType.String())
	if !ok {
		return style.Descriptor{}, internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("no style configured for %s", areaType), nil)
	}
	return d, nil
}

// PlanArea resolves the boundary of an area and plans its URL without fetching the image
func (r *Renderer) PlanArea(ctx context.Context, request boundary.Request, size staticmap.Size) (*mapgen.Plan, error) {
	f, err := r.fetchBoundary(ctx, request)
	if err != nil {
		return nil, err
	}
	return r.PlanFeature(f, request.AreaType, size)
}

// PlanFeature plans the URL of a feature styled as areaType
func (r *Renderer) PlanFeature(f *geojson.Feature, areaType internal.AreaType, size staticmap.Size) (*mapgen.Plan, error) {
	d, err := r.Descriptor(areaType)
	if err != nil {
		return nil, err
	}
	return r.generator.Plan(f, d, size)
}

// RenderArea resolves the boundary of an area and renders it
func (r *Renderer) RenderArea(ctx context.Context, request boundary.Request, size staticmap.Size) (*Result, error) {
	ctx = logger.WithArea(ctx, request.String())

	f, err := r.fetchBoundary(ctx, request)
	if err != nil {
		return nil, err
	}
	return r.RenderFeature(ctx, f, request.AreaType, size)
}

// RenderFeature renders a feature styled as areaType
func (r *Renderer) RenderFeature(ctx context.Context, f *geojson.Feature, areaType internal.AreaType, size staticmap.Size) (*Result, error) {
	log := logger.FromContext(ctx, r.logger)

	plan, err := r.PlanFeature(f, areaType, size)
	if err != nil {
		return nil, err
	}

	key := imagecache.Key(plan.URL)
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("image cache read failed")
	}
	r.metrics.ObserveCache(ok)
	if ok {
		log.Debug().Str("key", key).Msg("image cache hit")
		return &Result{Image: data, Plan: plan, Cached: true}, nil
	}

	data, err = r.generator.Fetch(ctx, plan)
	if err != nil {
		return &Result{Plan: plan}, err
	}

	if err := r.cache.Set(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("image cache write failed")
	}

	log.Debug().
		Str("stage", plan.Stage.String()).
		Int("bytes", len(data)).
		Msg("map image rendered")
	return &Result{Image: data, Plan: plan}, nil
}

func (r *Renderer) fetchBoundary(ctx context.Context, request boundary.Request) (*geojson.Feature, error) {
	if r.source == nil {
		return nil, internal.NewError(internal.ErrorCodeConfig, "cannot resolve "+request.String(), ErrNoSource)
	}

	f, err := r.source.Fetch(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("boundary %s: %w", request, err)
	}
	return f, nil
}
