// internal/render/fetcher_test.go - Unit tests for the rendering backend client
package render

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/valpere/boundary_staticmap/internal/config"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	cfg, err := config.LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	return NewHTTPFetcher(cfg)
}

func TestHTTPFetcher_Success(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("User-Agent") != "BoundaryStaticmap/1.0" {
			t.Errorf("Expected configured user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngMagic)
	}))
	defer server.Close()

	resp, err := newTestFetcher(t).Fetch(context.Background(), NewImageRequest(server.URL+"/static/auto/10x10"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(resp.Data, pngMagic) {
		t.Errorf("Expected PNG bytes, got %v", resp.Data)
	}
	if resp.ContentType != "image/png" || resp.Size != len(pngMagic) {
		t.Errorf("Unexpected response metadata %+v", resp)
	}
	if calls != 1 {
		t.Errorf("Expected exactly one request, got %d", calls)
	}
}

func TestHTTPFetcher_StatusRange(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
	}{
		{http.StatusOK, false},
		{http.StatusNonAuthoritativeInfo, false},
		{http.StatusMultipleChoices, true},
		{http.StatusNotFound, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write(pngMagic)
			}))
			defer server.Close()

			resp, err := newTestFetcher(t).Fetch(context.Background(), NewImageRequest(server.URL+"/static/auto/10x10"))
			if tt.wantErr {
				var upErr *UpstreamError
				if !errors.As(err, &upErr) || upErr.StatusCode != tt.status {
					t.Errorf("Expected UpstreamError with status %d, got %v", tt.status, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if resp.StatusCode != tt.status || !bytes.Equal(resp.Data, pngMagic) {
				t.Errorf("Expected status %d with PNG bytes, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestHTTPFetcher_GzipBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write(pngMagic)
		zw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	resp, err := newTestFetcher(t).Fetch(context.Background(), NewImageRequest(server.URL))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(resp.Data, pngMagic) {
		t.Errorf("Expected decompressed PNG bytes, got %v", resp.Data)
	}
}

func TestHTTPFetcher_UpstreamErrorNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Overlay bounds are out of range"}`))
	}))
	defer server.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), NewImageRequest(server.URL))

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", upErr.StatusCode)
	}
	if upErr.Body != `{"message":"Overlay bounds are out of range"}` {
		t.Errorf("Expected body to be preserved, got %q", upErr.Body)
	}
	if calls != 1 {
		t.Errorf("Expected no retries, got %d calls", calls)
	}
}

func TestHTTPFetcher_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), NewImageRequest(addr+"/static/auto/1x1?access_token=pk.secret"))

	var upErr *UpstreamError
	if !errors.As(err, &upErr) || upErr.StatusCode != 0 || upErr.Cause == nil {
		t.Fatalf("Expected transport UpstreamError, got %v", err)
	}
	if strings.Contains(err.Error(), "pk.secret") {
		t.Errorf("Expected access token to be redacted, got %v", err)
	}
}

func TestHTTPFetcher_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngMagic)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(t).Fetch(ctx, NewImageRequest(server.URL))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
