package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProvider_ExposesPipelineMetrics(t *testing.T) {
	p := Init(BuildInfo{Version: "test", Revision: "r"})

	p.Pipeline.ObserveStage("high_coverage", 7000)
	p.Pipeline.ObserveFetch(20*time.Millisecond, nil)
	p.Pipeline.ObserveFetch(time.Millisecond, errors.New("boom"))
	p.Pipeline.ObserveCache(true)
	p.Pipeline.ObserveCache(false)
	p.Pipeline.ObserveCache(false)

	if got := testutil.ToFloat64(p.Pipeline.stages.WithLabelValues("high_coverage")); got != 1 {
		t.Fatalf("stage counter=%v want 1", got)
	}
	if got := testutil.ToFloat64(p.Pipeline.cache.WithLabelValues("miss")); got != 2 {
		t.Fatalf("cache miss counter=%v want 2", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()

	for _, name := range []string{
		"staticmap_build_info{",
		"staticmap_stage_accepted_total{",
		"staticmap_url_length_chars_bucket",
		"staticmap_fetch_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in payload; got:\n%s", name, body)
		}
	}
}

func TestPipeline_NilIsNoop(t *testing.T) {
	var p *Pipeline
	p.ObserveStage("bounding_box", 100)
	p.ObserveFetch(time.Second, nil)
	p.ObserveCache(true)
}
