// pkg/geo/simplify.go - Best-effort boundary simplification
package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
)

// SimplifyBoundary runs Douglas-Peucker over a copy of the feature geometry.
// Simplification is an optimisation only: if it panics or leaves no geometry
// behind, the original feature is returned unmodified.
func SimplifyBoundary(f *geojson.Feature, tolerance float64) (out *geojson.Feature) {
	if f == nil || f.Geometry == nil || tolerance <= 0 {
		return f
	}

	defer func() {
		if recover() != nil {
			out = f
		}
	}()

	// orb simplifies in place, so work on a clone
	simplified := simplify.DouglasPeucker(tolerance).Simplify(orb.Clone(f.Geometry))
	if isEmptyGeometry(simplified) {
		return f
	}
	return withGeometry(f, simplified)
}

func isEmptyGeometry(g orb.Geometry) bool {
	switch v := g.(type) {
	case nil:
		return true
	case orb.Polygon:
		return len(v) == 0
	case orb.MultiPolygon:
		return len(v) == 0
	default:
		return false
	}
}
