// internal/staticmap/builder.go - Static map URL builders
package staticmap

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/valpere/boundary_staticmap/pkg/geo"
	"github.com/valpere/boundary_staticmap/pkg/style"
)

// Builder produces static map request URLs for the three overlay kinds
type Builder struct {
	config Config
}

// NewBuilder creates a builder, filling unset endpoint fields with defaults.
// A missing access token is not an error here: each build call checks it.
func NewBuilder(cfg Config) *Builder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	if cfg.StyleID == "" {
		cfg.StyleID = DefaultStyleID
	}
	if cfg.Padding <= 0 {
		cfg.Padding = DefaultPadding
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Builder{config: cfg}
}

// GeoJSONURL embeds the JSON-serialized feature as a geojson(...) overlay
func (b *Builder) GeoJSONURL(f *geojson.Feature, size Size) (string, error) {
	if err := b.check(size); err != nil {
		return "", err
	}

	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to marshal overlay feature: %w", err)
	}

	overlay := "geojson(" + encodeURIComponent(string(data)) + ")"
	return b.build(overlay, "auto", size), nil
}

// PathURL embeds one encoded-polyline path overlay per ring
func (b *Builder) PathURL(rings []orb.Ring, d style.Descriptor, size Size) (string, error) {
	if err := b.check(size); err != nil {
		return "", err
	}
	if len(rings) == 0 {
		return "", ErrNoRings
	}

	return b.build(PathOverlay(rings, d), "auto", size), nil
}

// BoundsURL frames the bound without drawing any overlay
func (b *Builder) BoundsURL(bound orb.Bound, size Size) (string, error) {
	if err := b.check(size); err != nil {
		return "", err
	}

	bbox := "[" + strings.Join([]string{
		formatFloat(bound.Min[0]),
		formatFloat(bound.Min[1]),
		formatFloat(bound.Max[0]),
		formatFloat(bound.Max[1]),
	}, ",") + "]"

	return b.build("", bbox, size), nil
}

// PathOverlay renders the comma-joined path-2+STROKE-1+FILL-OPACITY(POLYLINE)
// terms for a set of rings. Rings are truncated to geo.DefaultPrecision first.
func PathOverlay(rings []orb.Ring, d style.Descriptor) string {
	fill := style.ParseFillColor(d.Fill)
	stroke := style.StripHash(d.Stroke)
	fillHex := style.StripHash(fill.Color)
	opacity := formatFloat(style.RoundOpacity(fill.Opacity))

	terms := make([]string, len(rings))
	for i, ring := range rings {
		encoded := geo.EncodePolyline(geo.TruncateRing(ring, geo.DefaultPrecision))
		terms[i] = fmt.Sprintf("path-%d+%s-%s+%s-%s(%s)",
			style.StrokeWidth, stroke, formatFloat(style.StrokeOpacity),
			fillHex, opacity, encodeURIComponent(encoded))
	}
	return strings.Join(terms, ",")
}

// check validates the request-independent preconditions shared by all builders
func (b *Builder) check(size Size) error {
	if b.config.AccessToken == "" {
		return ErrMissingAccessToken
	}
	return size.Validate()
}

// build assembles {base}/styles/v1/{user}/{style}/static/[{overlay}/]{position}/{size}?{query}
func (b *Builder) build(overlay, position string, size Size) string {
	var sb strings.Builder
	sb.WriteString(b.config.BaseURL)
	sb.WriteString("/styles/v1/")
	sb.WriteString(b.config.Username)
	sb.WriteString("/")
	sb.WriteString(b.config.StyleID)
	sb.WriteString("/static/")
	if overlay != "" {
		sb.WriteString(overlay)
		sb.WriteString("/")
	}
	sb.WriteString(position)
	sb.WriteString("/")
	sb.WriteString(size.String())
	sb.WriteString("?")
	sb.WriteString(b.query())
	return sb.String()
}

func (b *Builder) query() string {
	q := url.Values{}
	q.Set("padding", strconv.Itoa(b.config.Padding))
	q.Set("attribution", "false")
	q.Set("logo", "false")
	q.Set("access_token", b.config.AccessToken)
	return q.Encode()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Redact masks the access token of a built URL so it can be logged or shown
func Redact(rawURL string) string {
	q := strings.LastIndexByte(rawURL, '?')
	if q < 0 {
		return rawURL
	}

	params := strings.Split(rawURL[q+1:], "&")
	for i, p := range params {
		if strings.HasPrefix(p, "access_token=") {
			params[i] = "access_token=REDACTED"
		}
	}
	return rawURL[:q+1] + strings.Join(params, "&")
}
