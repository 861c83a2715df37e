// internal/service/renderer_test.go - Unit tests for the rendering service
package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/boundary"
	"github.com/valpere/boundary_staticmap/internal/imagecache"
	"github.com/valpere/boundary_staticmap/internal/mapgen"
	"github.com/valpere/boundary_staticmap/internal/render"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
	"github.com/valpere/boundary_staticmap/pkg/style"
)

type mapSource map[string]*geojson.Feature

func (s mapSource) Fetch(_ context.Context, request boundary.Request) (*geojson.Feature, error) {
	f, ok := s[request.String()]
	if !ok {
		return nil, internal.NewError(internal.ErrorCodeNotFound, "boundary not found", nil)
	}
	return f, nil
}

func square(x, y, side float64) *geojson.Feature {
	return geojson.NewFeature(orb.Polygon{{
		{x, y}, {x + side, y}, {x + side, y + side}, {x, y + side}, {x, y},
	}})
}

func newTestRenderer(t *testing.T, fetches *int32, opts ...Option) *Renderer {
	t.Helper()

	builder := staticmap.NewBuilder(staticmap.Config{
		BaseURL:     staticmap.DefaultBaseURL,
		Username:    staticmap.DefaultUsername,
		StyleID:     staticmap.DefaultStyleID,
		AccessToken: "pk.test",
		Padding:     staticmap.DefaultPadding,
	})
	fetcher := render.FetcherFunc(func(_ context.Context, req *render.ImageRequest) (*render.ImageResponse, error) {
		atomic.AddInt32(fetches, 1)
		return &render.ImageResponse{Request: req, Data: []byte("PNG"), StatusCode: 200}, nil
	})

	source := mapSource{
		"province/31": square(106.7, -6.3, 0.2),
		"regency/3171": square(106.8, -6.2, 0.05),
	}

	r, err := New(source, mapgen.New(builder, fetcher), style.DefaultTable(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func mustRequest(t *testing.T, areaType, code string) boundary.Request {
	t.Helper()
	req, err := boundary.NewRequest(areaType, code)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func TestRenderArea_UsesCache(t *testing.T) {
	var fetches int32
	cache, err := imagecache.NewMemory(8)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	r := newTestRenderer(t, &fetches, WithCache(cache))
	ctx := context.Background()
	size := staticmap.NewSize(600, 400)

	first, err := r.RenderArea(ctx, mustRequest(t, "province", "31"), size)
	if err != nil {
		t.Fatalf("RenderArea: %v", err)
	}
	if first.Cached || string(first.Image) != "PNG" {
		t.Fatalf("Expected fresh image, got cached=%v image=%q", first.Cached, first.Image)
	}
	if first.Plan.Stage != mapgen.StageHighQuality {
		t.Errorf("Expected high_quality stage, got %s", first.Plan.Stage)
	}

	second, err := r.RenderArea(ctx, mustRequest(t, "province", "31"), size)
	if err != nil {
		t.Fatalf("RenderArea: %v", err)
	}
	if !second.Cached {
		t.Error("Expected second render to hit the cache")
	}
	if got := atomic.LoadInt32(&fetches); got != 1 {
		t.Errorf("Expected 1 fetch, got %d", got)
	}

	// A different size is a different URL
	if _, err := r.RenderArea(ctx, mustRequest(t, "province", "31"), staticmap.NewSize(300, 200)); err != nil {
		t.Fatalf("RenderArea: %v", err)
	}
	if got := atomic.LoadInt32(&fetches); got != 2 {
		t.Errorf("Expected 2 fetches, got %d", got)
	}
}

func TestRenderArea_NotFound(t *testing.T) {
	var fetches int32
	r := newTestRenderer(t, &fetches)

	_, err := r.RenderArea(context.Background(), mustRequest(t, "district", "999"), staticmap.NewSize(600, 400))
	if internal.CodeOf(err) != internal.ErrorCodeNotFound {
		t.Fatalf("Expected NOT_FOUND, got %v", err)
	}
	if fetches != 0 {
		t.Errorf("Expected no image fetch, got %d", fetches)
	}
}

func TestRenderFeature_UpstreamFailureKeepsPlan(t *testing.T) {
	var fetches int32
	r := newTestRenderer(t, &fetches)

	bad, err := New(nil, mapgen.New(
		staticmap.NewBuilder(staticmap.Config{BaseURL: "https://fail.example", Username: "u", StyleID: "s", AccessToken: "pk"}),
		render.FetcherFunc(func(context.Context, *render.ImageRequest) (*render.ImageResponse, error) {
			return nil, &render.UpstreamError{StatusCode: 401, Status: "401 Unauthorized"}
		}),
	), r.Styles())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := bad.RenderFeature(context.Background(), square(0, 0, 1), internal.AreaVillage, staticmap.NewSize(100, 100))
	var upstream *render.UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != 401 {
		t.Fatalf("Expected UpstreamError 401, got %v", err)
	}
	if res == nil || res.Plan == nil {
		t.Fatal("Expected plan to be returned with the upstream error")
	}
}

func TestPlanArea_DoesNotFetch(t *testing.T) {
	var fetches int32
	r := newTestRenderer(t, &fetches)

	plan, err := r.PlanArea(context.Background(), mustRequest(t, "regency", "3171"), staticmap.NewSize(600, 400))
	if err != nil {
		t.Fatalf("PlanArea: %v", err)
	}
	if plan.URL == "" || plan.URLLength() > staticmap.MaxURLLength {
		t.Errorf("Unexpected plan URL length %d", plan.URLLength())
	}
	if fetches != 0 {
		t.Errorf("Expected no image fetch, got %d", fetches)
	}
}

func TestNoSource(t *testing.T) {
	var fetches int32
	r := newTestRenderer(t, &fetches)
	noSource, err := New(nil, r.generator, r.Styles())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = noSource.RenderArea(context.Background(), mustRequest(t, "province", "31"), staticmap.NewSize(600, 400))
	if !errors.Is(err, ErrNoSource) {
		t.Fatalf("Expected ErrNoSource, got %v", err)
	}
}

func TestSetStyles(t *testing.T) {
	var fetches int32
	r := newTestRenderer(t, &fetches)
	size := staticmap.NewSize(600, 400)
	f := square(106.7, -6.3, 0.2)

	before, err := r.PlanFeature(f, internal.AreaProvince, size)
	if err != nil {
		t.Fatalf("PlanFeature: %v", err)
	}

	if err := r.SetStyles(style.Table{"province": {Stroke: "not-a-color", Fill: "#000"}}); err == nil {
		t.Fatal("Expected invalid style table to be rejected")
	}
	if err := r.SetStyles(style.Table{}); err == nil {
		t.Fatal("Expected empty style table to be rejected")
	}

	updated := style.DefaultTable().Merge(style.Table{"province": {Stroke: "#000000"}})
	if err := r.SetStyles(updated); err != nil {
		t.Fatalf("SetStyles: %v", err)
	}

	after, err := r.PlanFeature(f, internal.AreaProvince, size)
	if err != nil {
		t.Fatalf("PlanFeature: %v", err)
	}
	if before.URL == after.URL {
		t.Error("Expected the new stroke color to change the URL")
	}

	if _, err := r.PlanFeature(f, internal.AreaType("hamlet"), size); internal.CodeOf(err) != internal.ErrorCodeValidation {
		t.Errorf("Expected VALIDATION_ERROR for unknown style, got %v", err)
	}
}
