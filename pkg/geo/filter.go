// pkg/geo/filter.go - Degenerate ring and polygon filtering
package geo

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MinRingPoints is the smallest number of points a ring needs to enclose an
// area: three distinct vertices plus the closing point.
const MinRingPoints = 4

// ErrEmptyGeometry is returned when filtering removes every ring or polygon
var ErrEmptyGeometry = errors.New("geometry has no valid rings left after filtering")

// FilterDegenerate drops rings with fewer than MinRingPoints points. Polygons
// of a MultiPolygon that lose all their rings are dropped as well. It returns
// ErrEmptyGeometry when nothing valid remains. Non-polygonal features are
// returned unchanged.
func FilterDegenerate(f *geojson.Feature) (*geojson.Feature, error) {
	if f == nil {
		return nil, ErrEmptyGeometry
	}

	switch g := f.Geometry.(type) {
	case orb.Polygon:
		rings := validRings(g)
		if len(rings) == 0 {
			return nil, ErrEmptyGeometry
		}
		return withGeometry(f, rings), nil

	case orb.MultiPolygon:
		polygons := make(orb.MultiPolygon, 0, len(g))
		for _, p := range g {
			if rings := validRings(p); len(rings) > 0 {
				polygons = append(polygons, rings)
			}
		}
		if len(polygons) == 0 {
			return nil, ErrEmptyGeometry
		}
		return withGeometry(f, polygons), nil

	default:
		return f, nil
	}
}

// validRings returns the rings of p that have at least MinRingPoints points
func validRings(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, 0, len(p))
	for _, ring := range p {
		if len(ring) >= MinRingPoints {
			out = append(out, ring)
		}
	}
	return out
}
