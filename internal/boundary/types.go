// internal/boundary/types.go - Boundary source types
package boundary

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/valpere/boundary_staticmap/internal"
)

// Request identifies one administrative area
type Request struct {
	AreaType internal.AreaType `json:"area_type"`
	Code     string            `json:"code"`
}

// Source defines the interface for retrieving area boundaries
type Source interface {
	Fetch(ctx context.Context, request Request) (*geojson.Feature, error)
}

// Area codes are BPS/Kemendagri codes, optionally dotted (31, 31.71, 3171010001)
var codePattern = regexp.MustCompile(`^[0-9A-Za-z]+(\.[0-9A-Za-z]+)*$`)

// NewRequest validates an area type and code
func NewRequest(areaType, code string) (Request, error) {
	t, err := internal.ParseAreaType(areaType)
	if err != nil {
		return Request{}, err
	}

	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return Request{}, internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("invalid area code %q", code), nil)
	}

	return Request{AreaType: t, Code: code}, nil
}

// String returns "{area_type}/{code}"
func (r Request) String() string {
	return r.AreaType.String() + "/" + r.Code
}

// expand fills the {placeholders} of a URL or path template
func (r Request) expand(template string, extra ...string) string {
	pairs := append([]string{
		"{area_type}", r.AreaType.String(),
		"{code}", r.Code,
	}, extra...)
	return strings.NewReplacer(pairs...).Replace(template)
}

// DecodeFeature reads a boundary from any of the shapes area APIs return: a
// Feature, a FeatureCollection (polygonal members are merged), a bare
// geometry, or any of those wrapped in a {"data": ...} envelope.
func DecodeFeature(data []byte) (*geojson.Feature, error) {
	var probe struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, internal.NewError(internal.ErrorCodeValidation, "boundary is not valid JSON", err)
	}

	switch probe.Type {
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, internal.NewError(internal.ErrorCodeValidation, "invalid GeoJSON feature", err)
		}
		return f, nil

	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, internal.NewError(internal.ErrorCodeValidation, "invalid GeoJSON feature collection", err)
		}
		return mergeCollection(fc)

	case "":
		if len(probe.Data) == 0 || string(probe.Data) == "null" {
			return nil, internal.NewError(internal.ErrorCodeValidation, "response has no GeoJSON type and no data field", nil)
		}
		return DecodeFeature(probe.Data)

	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("invalid GeoJSON geometry of type %q", probe.Type), err)
		}
		return geojson.NewFeature(g.Geometry()), nil
	}
}

// mergeCollection combines the polygonal features of a collection into one feature
func mergeCollection(fc *geojson.FeatureCollection) (*geojson.Feature, error) {
	if len(fc.Features) == 1 {
		return fc.Features[0], nil
	}

	var merged orb.MultiPolygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			merged = append(merged, g)
		case orb.MultiPolygon:
			merged = append(merged, g...)
		}
	}

	if len(merged) == 0 {
		return nil, internal.NewError(internal.ErrorCodeGeometry, "feature collection has no polygonal features", nil)
	}

	out := geojson.NewFeature(merged)
	if first := fc.Features[0]; first.Properties != nil {
		out.Properties = first.Properties.Clone()
	}
	return out, nil
}
