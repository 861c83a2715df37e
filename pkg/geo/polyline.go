// pkg/geo/polyline.go - Encoded polyline support for ring overlays
package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// EncodePolyline encodes a ring with the Google polyline algorithm at 1e5
// scale, latitude before longitude. The ring is closed first when its last
// point differs from its first.
func EncodePolyline(ring orb.Ring) string {
	if len(ring) == 0 {
		return ""
	}

	closed := ring
	if first, last := ring[0], ring[len(ring)-1]; first[0] != last[0] || first[1] != last[1] {
		closed = make(orb.Ring, len(ring), len(ring)+1)
		copy(closed, ring)
		closed = append(closed, first)
	}

	coords := make([][]float64, len(closed))
	for i, p := range closed {
		coords[i] = []float64{p.Lat(), p.Lon()}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline reverses EncodePolyline, returning [lon, lat] points.
// Empty input is an error since no ring has zero points.
func DecodePolyline(encoded string) (orb.Ring, error) {
	if encoded == "" {
		return nil, fmt.Errorf("failed to decode polyline: empty input")
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("failed to decode polyline: %d trailing bytes", len(rest))
	}

	ring := make(orb.Ring, len(coords))
	for i, c := range coords {
		ring[i] = orb.Point{c[1], c[0]}
	}
	return ring, nil
}
