// pkg/geo/rank.go - Polygon importance ranking and ring selection
package geo

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// AreaProxy returns the area of the axis-aligned bounding box of every
// coordinate in the polygon. It is a ranking key only, not a true area.
func AreaProxy(p orb.Polygon) float64 {
	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	seen := false

	for _, ring := range p {
		for _, pt := range ring {
			seen = true
			minLon = math.Min(minLon, pt[0])
			maxLon = math.Max(maxLon, pt[0])
			minLat = math.Min(minLat, pt[1])
			maxLat = math.Max(maxLat, pt[1])
		}
	}

	if !seen {
		return 0
	}
	return (maxLon - minLon) * (maxLat - minLat)
}

// SortPolygonsByArea returns a copy of mp ordered by descending AreaProxy.
// The sort is stable so equal-area polygons keep their input order.
func SortPolygonsByArea(mp orb.MultiPolygon) orb.MultiPolygon {
	type ranked struct {
		polygon orb.Polygon
		area    float64
	}

	items := make([]ranked, len(mp))
	for i, p := range mp {
		items[i] = ranked{polygon: p, area: AreaProxy(p)}
	}

	slices.SortStableFunc(items, func(a, b ranked) int {
		switch {
		case a.area > b.area:
			return -1
		case a.area < b.area:
			return 1
		default:
			return 0
		}
	})

	sorted := make(orb.MultiPolygon, len(items))
	for i, it := range items {
		sorted[i] = it.polygon
	}
	return sorted
}

// LimitPolygons returns a new feature holding only the max largest polygons of
// a MultiPolygon feature. When sorted is non-nil it is used as the ranking
// instead of sorting again. Non-multi features and features already within the
// limit are returned unchanged.
func LimitPolygons(f *geojson.Feature, max int, sorted orb.MultiPolygon) *geojson.Feature {
	mp, ok := f.Geometry.(orb.MultiPolygon)
	if !ok || len(mp) <= max {
		return f
	}

	if sorted == nil {
		sorted = SortPolygonsByArea(mp)
	}
	limited := make(orb.MultiPolygon, max)
	copy(limited, sorted[:max])

	return withGeometry(f, limited)
}

// MajorRings returns the outer rings of the most important polygons: the
// single outer ring of a Polygon, or the outer rings of the maxCount largest
// polygons of a MultiPolygon (reusing sorted when provided).
func MajorRings(f *geojson.Feature, maxCount int, sorted orb.MultiPolygon) []orb.Ring {
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		if len(g) == 0 {
			return nil
		}
		return []orb.Ring{g[0]}
	case orb.MultiPolygon:
		if sorted == nil {
			sorted = SortPolygonsByArea(g)
		}
		n := min(maxCount, len(sorted))
		rings := make([]orb.Ring, 0, n)
		for _, p := range sorted[:n] {
			if len(p) > 0 {
				rings = append(rings, p[0])
			}
		}
		return rings
	default:
		return nil
	}
}

// BoundingBox scans every coordinate of every ring and returns the enclosing
// bound. Non-polygonal geometries fall back to orb's own Bound.
func BoundingBox(geom orb.Geometry) orb.Bound {
	var polygons orb.MultiPolygon
	switch g := geom.(type) {
	case orb.Polygon:
		polygons = orb.MultiPolygon{g}
	case orb.MultiPolygon:
		polygons = g
	case nil:
		return orb.Bound{}
	default:
		return geom.Bound()
	}

	bound := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	seen := false
	for _, p := range polygons {
		for _, ring := range p {
			for _, pt := range ring {
				seen = true
				bound = bound.Extend(pt)
			}
		}
	}

	if !seen {
		return orb.Bound{}
	}
	return bound
}
