// internal/mapgen/stages.go - Degradation ladder stages
package mapgen

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/valpere/boundary_staticmap/internal/staticmap"
	"github.com/valpere/boundary_staticmap/pkg/geo"
	"github.com/valpere/boundary_staticmap/pkg/style"
)

// stageFunc returns a plan when its stage accepted a URL, nil to fall through,
// or an error that ends the ladder
type stageFunc func() (*Plan, error)

// run holds the state of one pass through the ladder
type run struct {
	g          *Generator
	descriptor style.Descriptor
	size       staticmap.Size

	filtered     *geojson.Feature
	isMulti      bool
	totalIslands int
	// sortedCoords ranks the polygons of filtered; valid until simplification
	sortedCoords orb.MultiPolygon

	// set by the adaptive detail stage, each with its own ranking
	lastSimplified       *geojson.Feature
	lastSimplifiedSorted orb.MultiPolygon
	lastTolerance        float64

	attempts []Attempt
}

func newRun(g *Generator, f *geojson.Feature, d style.Descriptor, size staticmap.Size) (*run, error) {
	filtered, err := geo.FilterDegenerate(f)
	if err != nil {
		return nil, fmt.Errorf("filter boundary: %w", err)
	}

	r := &run{
		g:            g,
		descriptor:   d,
		size:         size,
		filtered:     filtered,
		isMulti:      geo.IsMulti(filtered),
		totalIslands: geo.IslandCount(filtered),
	}
	if mp, ok := filtered.Geometry.(orb.MultiPolygon); ok {
		r.sortedCoords = geo.SortPolygonsByArea(mp)
	}
	return r, nil
}

func (r *run) stages() []stageFunc {
	return []stageFunc{
		r.highQuality,
		r.highCoverage,
		r.adaptiveDetail,
		r.lowCoverage,
		r.boundingBox,
	}
}

// highQuality embeds up to GeoJSONPolygonCap polygons as GeoJSON. A fitting URL
// is accepted only when no island had to be dropped to build it.
func (r *run) highQuality() (*Plan, error) {
	limited := geo.LimitPolygons(r.filtered, GeoJSONPolygonCap, r.sortedCoords)

	url, err := r.g.builder.GeoJSONURL(style.ToSimplestyle(limited, r.descriptor), r.size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageHighQuality, err)
	}

	plan := r.try(StageHighQuality, geo.IslandCount(limited), 0, url)
	if plan == nil {
		return nil, nil
	}
	if r.isMulti && r.totalIslands > GeoJSONPolygonCap {
		r.g.logger.Debug().
			Int("total_islands", r.totalIslands).
			Msg("GeoJSON overlay fits only with islands dropped, trying path overlays")
		return nil, nil
	}
	return plan, nil
}

// highCoverage draws the outer rings of the largest islands at full detail
func (r *run) highCoverage() (*Plan, error) {
	if !r.isMulti {
		return nil, nil
	}
	return r.islandCaps(StageHighCoverage, CoverageCaps, r.filtered, r.sortedCoords, 0)
}

// adaptiveDetail simplifies progressively and draws the largest rings of each result
func (r *run) adaptiveDetail() (*Plan, error) {
	for _, tolerance := range ToleranceSchedule(r.descriptor.Tolerance) {
		simplified, err := geo.FilterDegenerate(geo.SimplifyBoundary(r.filtered, tolerance))
		if err != nil {
			r.g.logger.Debug().Float64("tolerance", tolerance).Err(err).Msg("simplification left no geometry, skipping")
			continue
		}

		// Simplification changes the areas, so the ranking starts over
		var simplifiedSorted orb.MultiPolygon
		if mp, ok := simplified.Geometry.(orb.MultiPolygon); ok {
			simplifiedSorted = geo.SortPolygonsByArea(mp)
		}
		r.lastSimplified = simplified
		r.lastSimplifiedSorted = simplifiedSorted
		r.lastTolerance = tolerance

		rings := geo.MajorRings(simplified, AdaptiveRingCap, simplifiedSorted)
		plan, err := r.path(StageAdaptiveDetail, rings, tolerance)
		if err != nil || plan != nil {
			return plan, err
		}
	}
	return nil, nil
}

// lowCoverage drops islands outright, preferring the last simplified geometry
func (r *run) lowCoverage() (*Plan, error) {
	if !r.isMulti {
		return nil, nil
	}
	if r.lastSimplified != nil {
		return r.islandCaps(StageLowCoverage, EmergencyCounts, r.lastSimplified, r.lastSimplifiedSorted, r.lastTolerance)
	}
	return r.islandCaps(StageLowCoverage, EmergencyCounts, r.filtered, r.sortedCoords, 0)
}

// boundingBox frames the filtered geometry without drawing it. It always accepts.
func (r *run) boundingBox() (*Plan, error) {
	url, err := r.g.builder.BoundsURL(geo.BoundingBox(r.filtered.Geometry), r.size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageBoundingBox, err)
	}

	r.record(StageBoundingBox, 0, 0, url)
	return &Plan{Stage: StageBoundingBox, URL: url}, nil
}

// islandCaps tries path overlays of the top-N rings for each cap in order.
// Caps that select the same number of rings as the previous one are skipped.
func (r *run) islandCaps(stage Stage, caps []int, f *geojson.Feature, sorted orb.MultiPolygon, tolerance float64) (*Plan, error) {
	islands := geo.IslandCount(f)
	previous := -1
	for _, limit := range caps {
		n := min(limit, islands)
		if n == previous {
			continue
		}
		previous = n

		plan, err := r.path(stage, geo.MajorRings(f, limit, sorted), tolerance)
		if err != nil || plan != nil {
			return plan, err
		}
	}
	return nil, nil
}

// path builds a path overlay URL; having no rings to draw is a miss, not an error
func (r *run) path(stage Stage, rings []orb.Ring, tolerance float64) (*Plan, error) {
	url, err := r.g.builder.PathURL(rings, r.descriptor, r.size)
	if errors.Is(err, staticmap.ErrNoRings) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stage, err)
	}
	return r.try(stage, len(rings), tolerance, url), nil
}

// try records the attempt and returns a plan when the URL fits the budget
func (r *run) try(stage Stage, rings int, tolerance float64, url string) *Plan {
	if !r.record(stage, rings, tolerance, url) {
		return nil
	}
	return &Plan{Stage: stage, URL: url, Rings: rings, Tolerance: tolerance}
}

func (r *run) record(stage Stage, rings int, tolerance float64, url string) bool {
	fits := len(url) <= staticmap.MaxURLLength
	r.attempts = append(r.attempts, Attempt{
		Stage:     stage,
		Rings:     rings,
		Tolerance: tolerance,
		URLLength: len(url),
		Fits:      fits,
	})

	r.g.logger.Debug().
		Str("stage", stage.String()).
		Int("rings", rings).
		Float64("tolerance", tolerance).
		Int("url_length", len(url)).
		Bool("fits", fits).
		Msg("stage attempt")
	return fits
}

// ToleranceSchedule returns the ascending, de-duplicated simplification
// tolerances derived from a base tolerance: 2x, 4x and 8x the base, plus the
// coarse tolerances when the base is below CoarseToleranceThreshold.
// Non-positive tolerances would not simplify anything and are dropped.
func ToleranceSchedule(base float64) []float64 {
	schedule := []float64{base * 2, base * 4, base * 8}
	if base < CoarseToleranceThreshold {
		schedule = append(schedule, CoarseTolerances...)
	}

	schedule = slices.DeleteFunc(schedule, func(t float64) bool {
		return t <= 0 || math.IsNaN(t) || math.IsInf(t, 0)
	})
	slices.Sort(schedule)
	return slices.Compact(schedule)
}
