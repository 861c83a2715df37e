// pkg/style/style_test.go - Unit tests for style descriptors and projection
package style

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestParseFillColor(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedColor   string
		expectedOpacity float64
	}{
		{"rrggbbaa", "#2563eb33", "#2563eb", 51.0 / 255},
		{"rgba", "#f00c", "#ff0000", 204.0 / 255},
		{"rrggbb", "#2563eb", "#2563eb", DefaultFillOpacity},
		{"rgb is not an alpha form", "#abc", "#abc", DefaultFillOpacity},
		{"bad alpha digits", "#2563ebzz", "#2563ebzz", DefaultFillOpacity},
		{"empty", "", "", DefaultFillOpacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFillColor(tt.input)
			if got.Color != tt.expectedColor {
				t.Errorf("Expected color %s, got %s", tt.expectedColor, got.Color)
			}
			if math.Abs(got.Opacity-tt.expectedOpacity) > 1e-12 {
				t.Errorf("Expected opacity %f, got %f", tt.expectedOpacity, got.Opacity)
			}
		})
	}

	if got := RoundOpacity(ParseFillColor("#2563eb33").Opacity); got != 0.2 {
		t.Errorf("Expected rounded opacity 0.2, got %f", got)
	}
}

func TestToSimplestyle(t *testing.T) {
	feature := geojson.NewFeature(orb.Polygon{{
		{106.123456, -6.123456},
		{106.2, -6.1},
		{106.2, -6.2},
		{106.123456, -6.123456},
	}})
	feature.Properties["name"] = "DKI Jakarta"
	feature.Properties["code"] = "31"

	out := ToSimplestyle(feature, Descriptor{Stroke: "#2563eb", Fill: "#2563eb33", Tolerance: 0.01})

	expectedKeys := []string{"stroke", "stroke-width", "stroke-opacity", "fill", "fill-opacity"}
	if len(out.Properties) != len(expectedKeys) {
		t.Fatalf("Expected %d properties, got %v", len(expectedKeys), out.Properties)
	}
	for _, k := range expectedKeys {
		if _, ok := out.Properties[k]; !ok {
			t.Errorf("Expected property %q", k)
		}
	}
	if out.Properties["fill"] != "#2563eb" {
		t.Errorf("Expected fill #2563eb, got %v", out.Properties["fill"])
	}

	first := out.Geometry.(orb.Polygon)[0][0]
	if first != (orb.Point{106.1235, -6.1235}) {
		t.Errorf("Expected truncated coordinates, got %v", first)
	}
	if feature.Properties["name"] != "DKI Jakarta" {
		t.Error("Expected input properties to be untouched")
	}

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Contains(string(data), "Jakarta") {
		t.Errorf("Expected source properties to be dropped, got %s", data)
	}
}

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		d       Descriptor
		wantErr bool
	}{
		{"valid rgba fill", Descriptor{Stroke: "#2563eb", Fill: "#2563eb33", Tolerance: 0.01}, false},
		{"valid short colors", Descriptor{Stroke: "#abc", Fill: "#abcd"}, false},
		{"bad stroke", Descriptor{Stroke: "blue", Fill: "#2563eb"}, true},
		{"bad fill", Descriptor{Stroke: "#2563eb", Fill: "#12"}, true},
		{"negative tolerance", Descriptor{Stroke: "#2563eb", Fill: "#2563eb", Tolerance: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := DefaultTable().Validate(); err != nil {
		t.Errorf("Expected default table to be valid, got %v", err)
	}
}

func TestTableMerge(t *testing.T) {
	base := DefaultTable()
	merged := base.Merge(Table{
		"Province": {Tolerance: 0.012},
		"island":   {Stroke: "#000000", Fill: "#00000033", Order: 5},
	})

	province, ok := merged.Lookup("province")
	if !ok {
		t.Fatal("Expected province style")
	}
	if province.Tolerance != 0.012 {
		t.Errorf("Expected overridden tolerance 0.012, got %f", province.Tolerance)
	}
	if province.Stroke != base["province"].Stroke {
		t.Errorf("Expected stroke to be kept, got %s", province.Stroke)
	}
	if base["province"].Tolerance != 0.01 {
		t.Error("Expected base table to be unchanged")
	}

	names := merged.Names()
	if names[0] != "province" || names[len(names)-1] != "island" {
		t.Errorf("Expected names ordered by draw order, got %v", names)
	}
}
