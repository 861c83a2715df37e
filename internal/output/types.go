// internal/output/types.go - Output handling types
package output

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/valpere/boundary_staticmap/internal/mapgen"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
)

// Format represents the plan output formats supported by the application
type Format string

const (
	FormatJSON    Format = "json"
	FormatText    Format = "text"
	FormatGeoJSON Format = "geojson"
)

// Formatter renders plans for people or tools
type Formatter interface {
	Format(view *PlanView) ([]byte, error)
	FormatAll(views []*PlanView) ([]byte, error)
	ContentType() string
}

// PlanView is the printable form of a plan. The access token of the URL is
// masked unless the view is built with redact=false.
type PlanView struct {
	Area         string           `json:"area,omitempty"`
	Stage        mapgen.Stage     `json:"stage"`
	URL          string           `json:"url"`
	URLLength    int              `json:"url_length"`
	Rings        int              `json:"rings"`
	Tolerance    float64          `json:"tolerance,omitempty"`
	TotalIslands int              `json:"total_islands"`
	Attempts     []mapgen.Attempt `json:"attempts,omitempty"`
	Decoded      []RingSummary    `json:"decoded,omitempty"`

	rings []orb.Ring
}

// RingSummary describes one ring recovered from the accepted URL
type RingSummary struct {
	Points int       `json:"points"`
	Bound  orb.Bound `json:"bound"`
}

// NewPlanView creates the printable form of a plan
func NewPlanView(area string, plan *mapgen.Plan, redact bool) *PlanView {
	u := plan.URL
	if redact {
		u = staticmap.Redact(u)
	}

	return &PlanView{
		Area:         area,
		Stage:        plan.Stage,
		URL:          u,
		URLLength:    plan.URLLength(),
		Rings:        plan.Rings,
		Tolerance:    plan.Tolerance,
		TotalIslands: plan.TotalIslands,
		Attempts:     plan.Attempts,
	}
}

// Decode recovers the rings drawn by the accepted URL and fills Decoded
func (v *PlanView) Decode() error {
	rings, err := staticmap.DecodeOverlay(v.URL)
	if err != nil {
		return fmt.Errorf("decode overlay of %s: %w", v.Area, err)
	}

	v.rings = rings
	v.Decoded = make([]RingSummary, len(rings))
	for i, ring := range rings {
		v.Decoded[i] = RingSummary{Points: len(ring), Bound: ring.Bound()}
	}
	return nil
}

// String returns a string representation of the format
func (f Format) String() string {
	return string(f)
}

// IsValid checks if the format is supported
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatText, FormatGeoJSON:
		return true
	default:
		return false
	}
}
