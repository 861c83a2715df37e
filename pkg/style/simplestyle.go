// pkg/style/simplestyle.go - Simplestyle GeoJSON projection
package style

import (
	"github.com/paulmach/orb/geojson"

	"github.com/valpere/boundary_staticmap/pkg/geo"
)

// Fixed stroke parameters shared by every overlay encoding
const (
	StrokeWidth   = 2
	StrokeOpacity = 1.0
)

// ToSimplestyle builds a new feature carrying only the five simplestyle keys,
// with its geometry truncated to geo.DefaultPrecision decimals. Source
// properties are dropped to keep the encoded overlay short.
func ToSimplestyle(f *geojson.Feature, d Descriptor) *geojson.Feature {
	fill := ParseFillColor(d.Fill)

	out := geojson.NewFeature(geo.TruncateGeometry(f.Geometry, geo.DefaultPrecision))
	out.Properties = geojson.Properties{
		"stroke":         d.Stroke,
		"stroke-width":   StrokeWidth,
		"stroke-opacity": StrokeOpacity,
		"fill":           fill.Color,
		"fill-opacity":   fill.Opacity,
	}
	return out
}
