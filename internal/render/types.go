// internal/render/types.go - Image fetching types
package render

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ImageRequest represents a request for one rendered static map image
type ImageRequest struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ImageResponse represents the response from the rendering backend
type ImageResponse struct {
	Request     *ImageRequest `json:"request"`
	Data        []byte        `json:"-"`
	Headers     http.Header   `json:"headers"`
	StatusCode  int           `json:"status_code"`
	ContentType string        `json:"content_type"`
	Size        int           `json:"size"`
	FetchTime   time.Duration `json:"fetch_time"`
}

// Fetcher defines the interface for retrieving rendered images.
// Implementations perform exactly one attempt per call.
type Fetcher interface {
	Fetch(ctx context.Context, request *ImageRequest) (*ImageResponse, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, request *ImageRequest) (*ImageResponse, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, request *ImageRequest) (*ImageResponse, error) {
	return f(ctx, request)
}

// UpstreamError reports a failed image fetch. StatusCode is 0 when the
// backend could not be reached at all.
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("rendering backend unreachable: %v", e.Cause)
	}
	if e.Body == "" {
		return fmt.Sprintf("rendering backend returned %s", e.Status)
	}
	return fmt.Sprintf("rendering backend returned %s: %s", e.Status, e.Body)
}

// Unwrap exposes the transport error, if any
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// NewImageRequest creates an image request for the given URL
func NewImageRequest(url string) *ImageRequest {
	return &ImageRequest{
		URL:     url,
		Headers: make(map[string]string),
	}
}
