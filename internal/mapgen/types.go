// internal/mapgen/types.go - Adaptive map generation types
package mapgen

import (
	"fmt"
	"strings"
)

// Stage identifies one step of the degradation ladder
type Stage int

const (
	StageFilter Stage = iota + 1
	StageHighQuality
	StageHighCoverage
	StageAdaptiveDetail
	StageLowCoverage
	StageBoundingBox
)

var stageNames = map[Stage]string{
	StageFilter:         "filter",
	StageHighQuality:    "high_quality",
	StageHighCoverage:   "high_coverage",
	StageAdaptiveDetail: "adaptive_detail",
	StageLowCoverage:    "low_coverage",
	StageBoundingBox:    "bounding_box",
}

// Limits applied by the individual stages
const (
	// GeoJSONPolygonCap is the most polygons embedded in a GeoJSON overlay
	GeoJSONPolygonCap = 50
	// AdaptiveRingCap is the most rings drawn after simplification
	AdaptiveRingCap = 30
	// CoarseToleranceThreshold adds the coarse tolerances for fine base tolerances
	CoarseToleranceThreshold = 0.02
)

var (
	// CoverageCaps are the island caps of the high coverage stage, tried in order
	CoverageCaps = []int{100, 75, 50, 30}
	// EmergencyCounts are the island counts of the low coverage stage, tried in order
	EmergencyCounts = []int{15, 10, 5, 3, 1}
	// CoarseTolerances extend the schedule when the base tolerance is fine
	CoarseTolerances = []float64{0.02, 0.05, 0.1}
)

// String returns the stage name used in logs and metrics
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// MarshalText encodes the stage by name
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name
func (s *Stage) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for stage, n := range stageNames {
		if n == name {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// Attempt records one candidate URL considered while planning
type Attempt struct {
	Stage     Stage   `json:"stage"`
	Rings     int     `json:"rings"`
	Tolerance float64 `json:"tolerance,omitempty"`
	URLLength int     `json:"url_length"`
	Fits      bool    `json:"fits"`
}

// Plan is the outcome of the degradation ladder: the accepted URL and how it was reached
type Plan struct {
	Stage        Stage     `json:"stage"`
	URL          string    `json:"url"`
	Rings        int       `json:"rings"`
	Tolerance    float64   `json:"tolerance,omitempty"`
	TotalIslands int       `json:"total_islands"`
	Attempts     []Attempt `json:"attempts"`
}

// URLLength returns the length of the accepted URL
func (p *Plan) URLLength() int {
	return len(p.URL)
}
