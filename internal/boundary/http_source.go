// internal/boundary/http_source.go - Area API boundary source
package boundary

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/config"
	"github.com/valpere/boundary_staticmap/internal/render"
)

// HTTPSource implements the Source interface against the area REST API
type HTTPSource struct {
	client    *http.Client
	config    *config.BoundaryConfig
	userAgent string
}

// NewHTTPSource creates a new HTTP-based boundary source
func NewHTTPSource(cfg *config.Config) *HTTPSource {
	return &HTTPSource{
		client:    render.NewHTTPClient(&cfg.Network, cfg.Boundary.Timeout),
		config:    &cfg.Boundary,
		userAgent: cfg.Network.UserAgent,
	}
}

// Fetch retrieves the boundary of one area
func (s *HTTPSource) Fetch(ctx context.Context, request Request) (*geojson.Feature, error) {
	req, err := s.buildHTTPRequest(ctx, request)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeValidation, "failed to build boundary request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeNetwork, fmt.Sprintf("boundary request for %s failed", request), err)
	}
	defer resp.Body.Close()

	data, err := render.ReadBody(resp)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeNetwork, "failed to read boundary response", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, internal.NewError(internal.ErrorCodeNotFound, fmt.Sprintf("boundary %s not found", request), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, internal.NewError(internal.ErrorCodeNetwork,
			fmt.Sprintf("boundary API returned %s: %s", resp.Status, strings.TrimSpace(string(data))), nil)
	}

	f, err := DecodeFeature(data)
	if err != nil {
		return nil, fmt.Errorf("decode boundary %s: %w", request, err)
	}
	return f, nil
}

// URL returns the boundary URL of a request
func (s *HTTPSource) URL(request Request) string {
	return request.expand(s.config.URLTemplate,
		"{base_url}", strings.TrimRight(s.config.BaseURL, "/"),
	)
}

// buildHTTPRequest constructs an HTTP request for a boundary
func (s *HTTPSource) buildHTTPRequest(ctx context.Context, request Request) (*http.Request, error) {
	escaped := Request{AreaType: request.AreaType, Code: url.PathEscape(request.Code)}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(escaped), nil)
	if err != nil {
		return nil, err
	}

	// Set default headers
	req.Header.Set("Accept", "application/geo+json, application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	// Add authentication if configured
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	// Add source-level headers from configuration
	for key, value := range s.config.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
