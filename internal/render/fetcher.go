// internal/render/fetcher.go - Rendering backend client
package render

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valpere/boundary_staticmap/internal/config"
	"github.com/valpere/boundary_staticmap/internal/metrics"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
)

// HTTPFetcher implements the Fetcher interface using HTTP requests
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	metrics   *metrics.Pipeline
}

// NewHTTPFetcher creates a new HTTP-based image fetcher
func NewHTTPFetcher(cfg *config.Config) *HTTPFetcher {
	return &HTTPFetcher{
		client:    NewHTTPClient(&cfg.Network, cfg.Mapbox.Timeout),
		userAgent: cfg.Network.UserAgent,
	}
}

// NewHTTPClient builds an HTTP client from the network settings
func NewHTTPClient(network *config.NetworkConfig, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: network.KeepAlive,
		}).DialContext,
		MaxIdleConns:        network.MaxIdleConns,
		IdleConnTimeout:     network.IdleConnTimeout,
		DisableKeepAlives:   network.DisableKeepAlive,
		TLSHandshakeTimeout: 10 * time.Second,
		Proxy:               http.ProxyFromEnvironment,
	}

	// Configure proxy if specified
	if network.ProxyURL != "" {
		if proxyURL, err := url.Parse(network.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// WithMetrics records fetch latency into p
func (f *HTTPFetcher) WithMetrics(p *metrics.Pipeline) *HTTPFetcher {
	f.metrics = p
	return f
}

// Fetch retrieves a single image. Non-2xx responses are returned as *UpstreamError.
func (f *HTTPFetcher) Fetch(ctx context.Context, request *ImageRequest) (resp *ImageResponse, err error) {
	start := time.Now()
	defer func() { f.metrics.ObserveFetch(time.Since(start), err) }()

	req, err := f.buildHTTPRequest(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}

	httpResp, err := f.client.Do(req)
	if err != nil {
		// The request URL carries the access token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = staticmap.Redact(urlErr.URL)
		}
		return nil, &UpstreamError{Cause: err}
	}
	defer httpResp.Body.Close()

	data, err := ReadBody(httpResp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &UpstreamError{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	return &ImageResponse{
		Request:     request,
		Data:        data,
		Headers:     httpResp.Header,
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Size:        len(data),
		FetchTime:   time.Since(start),
	}, nil
}

// ReadBody reads a response body, transparently decoding gzip content
func ReadBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}
	return io.ReadAll(reader)
}

// buildHTTPRequest constructs an HTTP request from an image request
func (f *HTTPFetcher) buildHTTPRequest(ctx context.Context, imgReq *ImageRequest) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgReq.URL, nil)
	if err != nil {
		return nil, err
	}

	// Set default headers
	req.Header.Set("Accept", "image/png,image/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	// Add request-specific headers
	for key, value := range imgReq.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
