// internal/mapgen/generator.go - Adaptive static map generator
package mapgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/valpere/boundary_staticmap/internal/metrics"
	"github.com/valpere/boundary_staticmap/internal/render"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
	"github.com/valpere/boundary_staticmap/pkg/geo"
	"github.com/valpere/boundary_staticmap/pkg/style"
)

// ErrNoFetcher is returned by Generate when the generator was built without a fetcher
var ErrNoFetcher = errors.New("no image fetcher configured")

// Generator picks the most faithful overlay that fits the URL budget and
// fetches the rendered image. It holds no per-request state and is safe for
// concurrent use.
type Generator struct {
	builder *staticmap.Builder
	fetcher render.Fetcher
	logger  *zerolog.Logger
	metrics *metrics.Pipeline
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger used for stage tracing
func WithLogger(l *zerolog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithMetrics records accepted stages into p
func WithMetrics(p *metrics.Pipeline) Option {
	return func(g *Generator) { g.metrics = p }
}

// New creates a generator. fetcher may be nil when only Plan is used.
func New(builder *staticmap.Builder, fetcher render.Fetcher, opts ...Option) *Generator {
	nop := zerolog.Nop()
	g := &Generator{
		builder: builder,
		fetcher: fetcher,
		logger:  &nop,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Plan runs the degradation ladder without any I/O and returns the accepted URL
func (g *Generator) Plan(f *geojson.Feature, d style.Descriptor, size staticmap.Size) (*Plan, error) {
	if f == nil || f.Geometry == nil {
		return nil, fmt.Errorf("filter boundary: %w", geo.ErrEmptyGeometry)
	}

	r, err := newRun(g, f, d, size)
	if err != nil {
		return nil, err
	}

	for _, stage := range r.stages() {
		plan, err := stage()
		if err != nil {
			return nil, err
		}
		if plan != nil {
			plan.TotalIslands = r.totalIslands
			plan.Attempts = r.attempts

			g.metrics.ObserveStage(plan.Stage.String(), plan.URLLength())
			g.logger.Info().
				Str("stage", plan.Stage.String()).
				Int("url_length", plan.URLLength()).
				Int("rings", plan.Rings).
				Int("total_islands", plan.TotalIslands).
				Float64("tolerance", plan.Tolerance).
				Msg("static map URL accepted")
			return plan, nil
		}
	}

	// The bounding box stage always accepts
	return nil, fmt.Errorf("no stage produced a URL")
}

// Generate plans the URL and performs exactly one fetch of the rendered image.
// A failed fetch is returned as is together with the plan; it is not retried.
func (g *Generator) Generate(ctx context.Context, f *geojson.Feature, d style.Descriptor, size staticmap.Size) ([]byte, *Plan, error) {
	plan, err := g.Plan(f, d, size)
	if err != nil {
		return nil, nil, err
	}

	data, err := g.Fetch(ctx, plan)
	if err != nil {
		return nil, plan, err
	}
	return data, plan, nil
}

// Fetch performs one fetch of an already accepted plan
func (g *Generator) Fetch(ctx context.Context, plan *Plan) ([]byte, error) {
	if g.fetcher == nil {
		return nil, ErrNoFetcher
	}

	resp, err := g.fetcher.Fetch(ctx, render.NewImageRequest(plan.URL))
	if err != nil {
		return nil, fmt.Errorf("fetch static map image: %w", err)
	}
	return resp.Data, nil
}

// Builder returns the URL builder used by the generator
func (g *Generator) Builder() *staticmap.Builder {
	return g.builder
}
