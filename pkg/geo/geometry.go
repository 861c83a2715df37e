// pkg/geo/geometry.go - Shared geometry transformation utilities
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultPrecision is the number of decimal digits kept when coordinates are
// truncated for URL encoding (roughly 11 m at the equator).
const DefaultPrecision = 4

// applyGeometryTransform applies a transformation function to all coordinates in a geometry
func applyGeometryTransform(geom orb.Geometry, transform func(orb.Point) orb.Point) orb.Geometry {
	switch g := geom.(type) {
	case orb.Point:
		return transform(g)
	case orb.MultiPoint:
		result := make(orb.MultiPoint, len(g))
		for i, point := range g {
			result[i] = transform(point)
		}
		return result
	case orb.LineString:
		result := make(orb.LineString, len(g))
		for i, point := range g {
			result[i] = transform(point)
		}
		return result
	case orb.MultiLineString:
		result := make(orb.MultiLineString, len(g))
		for i, lineString := range g {
			result[i] = applyGeometryTransform(lineString, transform).(orb.LineString)
		}
		return result
	case orb.Ring:
		result := make(orb.Ring, len(g))
		for i, point := range g {
			result[i] = transform(point)
		}
		return result
	case orb.Polygon:
		result := make(orb.Polygon, len(g))
		for i, ring := range g {
			result[i] = applyGeometryTransform(ring, transform).(orb.Ring)
		}
		return result
	case orb.MultiPolygon:
		result := make(orb.MultiPolygon, len(g))
		for i, polygon := range g {
			result[i] = applyGeometryTransform(polygon, transform).(orb.Polygon)
		}
		return result
	case orb.Collection:
		result := make(orb.Collection, len(g))
		for i, child := range g {
			result[i] = applyGeometryTransform(child, transform)
		}
		return result
	case orb.Bound:
		return orb.Bound{Min: transform(g.Min), Max: transform(g.Max)}
	default:
		return geom
	}
}

// TruncatePoint rounds both components of a coordinate pair to precision decimal digits
func TruncatePoint(p orb.Point, precision int) orb.Point {
	factor := math.Pow(10, float64(precision))
	return orb.Point{
		math.Round(p[0]*factor) / factor,
		math.Round(p[1]*factor) / factor,
	}
}

// TruncateGeometry returns a copy of geom with every coordinate truncated to
// precision decimal digits. Unknown geometry kinds are returned unchanged.
func TruncateGeometry(geom orb.Geometry, precision int) orb.Geometry {
	if geom == nil {
		return nil
	}
	return applyGeometryTransform(geom, func(p orb.Point) orb.Point {
		return TruncatePoint(p, precision)
	})
}

// TruncateRing is TruncateGeometry specialised for a single ring
func TruncateRing(ring orb.Ring, precision int) orb.Ring {
	return applyGeometryTransform(ring, func(p orb.Point) orb.Point {
		return TruncatePoint(p, precision)
	}).(orb.Ring)
}

// withGeometry returns a shallow copy of the feature carrying a new geometry.
// Properties are copied so callers never share a map with the input.
func withGeometry(f *geojson.Feature, geom orb.Geometry) *geojson.Feature {
	out := &geojson.Feature{
		ID:       f.ID,
		Type:     f.Type,
		BBox:     f.BBox,
		Geometry: geom,
	}
	if f.Properties != nil {
		out.Properties = make(geojson.Properties, len(f.Properties))
		for k, v := range f.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

// IsMulti reports whether the feature geometry is a MultiPolygon
func IsMulti(f *geojson.Feature) bool {
	if f == nil {
		return false
	}
	_, ok := f.Geometry.(orb.MultiPolygon)
	return ok
}

// IslandCount returns the number of polygons in the feature: the polygon count
// of a MultiPolygon, 1 for anything else.
func IslandCount(f *geojson.Feature) int {
	if mp, ok := f.Geometry.(orb.MultiPolygon); ok {
		return len(mp)
	}
	return 1
}
