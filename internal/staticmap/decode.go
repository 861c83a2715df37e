// internal/staticmap/decode.go - Reading overlays back out of built URLs
package staticmap

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/valpere/boundary_staticmap/pkg/geo"
)

// Overlay returns the overlay segment of a built URL, or "" for bounds-only URLs
func Overlay(rawURL string) (string, error) {
	if q := strings.IndexByte(rawURL, '?'); q >= 0 {
		rawURL = rawURL[:q]
	}

	i := strings.LastIndex(rawURL, "/static/")
	if i < 0 {
		return "", fmt.Errorf("not a static map URL: %q", rawURL)
	}

	parts := strings.Split(rawURL[i+len("/static/"):], "/")
	switch len(parts) {
	case 2:
		return "", nil
	case 3:
		return parts[0], nil
	default:
		return "", fmt.Errorf("unexpected static map path with %d segments", len(parts))
	}
}

// DecodeOverlay recovers the rings drawn by a geojson(...) or path overlay URL.
// Bounds-only URLs have no rings.
func DecodeOverlay(rawURL string) ([]orb.Ring, error) {
	overlay, err := Overlay(rawURL)
	if err != nil || overlay == "" {
		return nil, err
	}

	if strings.HasPrefix(overlay, "geojson(") && strings.HasSuffix(overlay, ")") {
		return decodeGeoJSONOverlay(overlay[len("geojson(") : len(overlay)-1])
	}

	var rings []orb.Ring
	for _, term := range strings.Split(overlay, ",") {
		open := strings.IndexByte(term, '(')
		if !strings.HasPrefix(term, "path-") || open < 0 || !strings.HasSuffix(term, ")") {
			return nil, fmt.Errorf("unrecognized overlay term %q", term)
		}

		encoded, err := url.PathUnescape(term[open+1 : len(term)-1])
		if err != nil {
			return nil, fmt.Errorf("unescape path overlay: %w", err)
		}

		ring, err := geo.DecodePolyline(encoded)
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

func decodeGeoJSONOverlay(escaped string) ([]orb.Ring, error) {
	data, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("unescape geojson overlay: %w", err)
	}

	f, err := geojson.UnmarshalFeature([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decode geojson overlay: %w", err)
	}

	var rings []orb.Ring
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		rings = append(rings, g...)
	case orb.MultiPolygon:
		for _, p := range g {
			rings = append(rings, p...)
		}
	}
	return rings, nil
}
