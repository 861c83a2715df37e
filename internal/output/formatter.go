// internal/output/formatter.go - Plan formatting implementation
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// JSONFormatter formats plans as JSON objects
type JSONFormatter struct {
	pretty bool
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(pretty bool) *JSONFormatter {
	return &JSONFormatter{pretty: pretty}
}

// Format formats a single plan
func (f *JSONFormatter) Format(view *PlanView) ([]byte, error) {
	return f.marshal(view)
}

// FormatAll formats several plans as one JSON array
func (f *JSONFormatter) FormatAll(views []*PlanView) ([]byte, error) {
	if views == nil {
		views = []*PlanView{}
	}
	return f.marshal(views)
}

// ContentType returns the MIME type for JSON
func (f *JSONFormatter) ContentType() string {
	return "application/json"
}

func (f *JSONFormatter) marshal(v any) ([]byte, error) {
	if f.pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// TextFormatter formats plans as aligned key/value blocks
type TextFormatter struct{}

// NewTextFormatter creates a new text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format formats a single plan
func (f *TextFormatter) Format(view *PlanView) ([]byte, error) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	if view.Area != "" {
		fmt.Fprintf(tw, "area:\t%s\n", view.Area)
	}
	fmt.Fprintf(tw, "stage:\t%s\n", view.Stage)
	fmt.Fprintf(tw, "url length:\t%d\n", view.URLLength)
	fmt.Fprintf(tw, "rings:\t%d of %d islands\n", view.Rings, view.TotalIslands)
	if view.Tolerance > 0 {
		fmt.Fprintf(tw, "tolerance:\t%g\n", view.Tolerance)
	}
	fmt.Fprintf(tw, "attempts:\t%d\n", len(view.Attempts))
	for _, a := range view.Attempts {
		fits := "too long"
		if a.Fits {
			fits = "fits"
		}
		fmt.Fprintf(tw, "\t%s\trings=%d\ttolerance=%g\tlength=%d\t%s\n", a.Stage, a.Rings, a.Tolerance, a.URLLength, fits)
	}
	for i, r := range view.Decoded {
		fmt.Fprintf(tw, "ring %d:\t%d points\t[%g,%g,%g,%g]\n", i, r.Points,
			r.Bound.Min[0], r.Bound.Min[1], r.Bound.Max[0], r.Bound.Max[1])
	}
	fmt.Fprintf(tw, "url:\t%s\n", view.URL)

	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatAll formats several plans separated by blank lines
func (f *TextFormatter) FormatAll(views []*PlanView) ([]byte, error) {
	var buf bytes.Buffer
	for i, v := range views {
		if i > 0 {
			buf.WriteByte('\n')
		}
		data, err := f.Format(v)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// ContentType returns the MIME type for text
func (f *TextFormatter) ContentType() string {
	return "text/plain; charset=utf-8"
}

// GeoJSONFormatter formats the rings drawn by plans as a FeatureCollection
type GeoJSONFormatter struct {
	pretty bool
}

// NewGeoJSONFormatter creates a new GeoJSON formatter
func NewGeoJSONFormatter(pretty bool) *GeoJSONFormatter {
	return &GeoJSONFormatter{pretty: pretty}
}

// Format formats the rings of a single plan
func (f *GeoJSONFormatter) Format(view *PlanView) ([]byte, error) {
	return f.FormatAll([]*PlanView{view})
}

// FormatAll formats the rings of several plans, one feature per ring
func (f *GeoJSONFormatter) FormatAll(views []*PlanView) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	for _, v := range views {
		if v.rings == nil {
			if err := v.Decode(); err != nil {
				return nil, err
			}
		}
		for i, ring := range v.rings {
			feature := geojson.NewFeature(orb.Polygon{ring})
			feature.Properties["area"] = v.Area
			feature.Properties["stage"] = v.Stage.String()
			feature.Properties["ring"] = i
			fc.Append(feature)
		}
	}

	if f.pretty {
		return json.MarshalIndent(fc, "", "  ")
	}
	return json.Marshal(fc)
}

// ContentType returns the MIME type for GeoJSON
func (f *GeoJSONFormatter) ContentType() string {
	return "application/geo+json"
}

// NewFormatter creates a formatter for the requested format
func NewFormatter(format Format, pretty bool) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(pretty), nil
	case FormatText:
		return NewTextFormatter(), nil
	case FormatGeoJSON:
		return NewGeoJSONFormatter(pretty), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
