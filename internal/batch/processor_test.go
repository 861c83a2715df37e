// internal/batch/processor_test.go - Unit tests for batch rendering
package batch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/valpere/boundary_staticmap/internal/boundary"
	"github.com/valpere/boundary_staticmap/internal/mapgen"
	"github.com/valpere/boundary_staticmap/internal/output"
	"github.com/valpere/boundary_staticmap/internal/service"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
)

type fakeRenderer struct {
	mu      sync.Mutex
	calls   int
	failing map[string]bool
	delay   time.Duration
}

func (f *fakeRenderer) RenderArea(ctx context.Context, request boundary.Request, _ staticmap.Size) (*service.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.failing[request.Code] {
		return nil, errors.New("boundary not found")
	}
	return &service.Result{
		Image: []byte("PNG:" + request.Code),
		Plan:  &mapgen.Plan{Stage: mapgen.StageHighQuality, URL: "https://example.com/" + request.Code},
	}, nil
}

func testItems(t *testing.T, codes ...string) []Item {
	t.Helper()

	requests := make([]boundary.Request, len(codes))
	for i, code := range codes {
		req, err := boundary.NewRequest("regency", code)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		requests[i] = req
	}
	return NewItems(requests, func(r boundary.Request) string {
		return filepath.Join("out", r.AreaType.String(), r.Code+".png")
	})
}

func testOptions() Options {
	return Options{Concurrency: 2, Size: staticmap.NewSize(600, 400)}
}

func TestRun_WritesEveryItem(t *testing.T) {
	fs := afero.NewMemMapFs()
	renderer := &fakeRenderer{}
	items := testItems(t, "3171", "3172", "3173", "3174")

	var mu sync.Mutex
	var last Progress
	opts := testOptions()
	opts.OnProgress = func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		if p.Processed > last.Processed {
			last = p
		}
	}

	summary, err := NewProcessor(renderer, output.NewImageWriter(fs, nil), nil).Run(context.Background(), items, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Succeeded != 4 || summary.Failed != 0 {
		t.Errorf("Expected 4 succeeded, got %+v", summary.Progress)
	}
	if summary.Stages["high_quality"] != 4 {
		t.Errorf("Expected 4 high_quality stages, got %v", summary.Stages)
	}
	for i, item := range items {
		data, err := afero.ReadFile(fs, item.Output)
		if err != nil || string(data) != "PNG:"+item.Request.Code {
			t.Errorf("Item %d: expected image on disk, got %q err=%v", i, data, err)
		}
		if summary.Results[i].Item.Request != item.Request {
			t.Errorf("Expected results in item order")
		}
	}
	if last.Processed != 4 || last.CalculateProgress() != 100 {
		t.Errorf("Expected final progress 4/4, got %+v", last)
	}
}

func TestRun_CollectsFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	renderer := &fakeRenderer{failing: map[string]bool{"3172": true, "3174": true}}

	summary, err := NewProcessor(renderer, output.NewImageWriter(fs, nil), nil).
		Run(context.Background(), testItems(t, "3171", "3172", "3173", "3174"), testOptions())
	if err == nil {
		t.Fatal("Expected combined error")
	}
	if n := len(Errors(err)); n != 2 {
		t.Errorf("Expected 2 item errors, got %d: %v", n, err)
	}
	if summary.Succeeded != 2 || summary.Failed != 2 {
		t.Errorf("Expected 2 succeeded and 2 failed, got %+v", summary.Progress)
	}
	if summary.Results[1].Err() == nil || summary.Results[1].Error == "" {
		t.Error("Expected failed item to carry its error")
	}
}

func TestRun_FailOnErrorStopsEarly(t *testing.T) {
	fs := afero.NewMemMapFs()
	renderer := &fakeRenderer{failing: map[string]bool{"1": true}}

	codes := []string{"1"}
	for i := 2; i <= 20; i++ {
		codes = append(codes, string(rune('a'+i)))
	}

	opts := testOptions()
	opts.Concurrency = 1
	opts.FailOnError = true

	summary, err := NewProcessor(renderer, output.NewImageWriter(fs, nil), nil).
		Run(context.Background(), testItems(t, codes...), opts)
	if err == nil {
		t.Fatal("Expected error")
	}
	if n := len(Errors(err)); n != 1 {
		t.Errorf("Expected only the first failure to be reported, got %d", n)
	}
	if summary.Skipped == 0 {
		t.Errorf("Expected remaining items to be skipped, got %+v", summary.Progress)
	}
}

func TestRun_SkipExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	items := testItems(t, "3171", "3172")
	_ = afero.WriteFile(fs, items[0].Output, []byte("old"), 0o644)

	renderer := &fakeRenderer{}
	opts := testOptions()
	opts.SkipExisting = true

	summary, err := NewProcessor(renderer, output.NewImageWriter(fs, nil), nil).Run(context.Background(), items, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 || summary.Succeeded != 1 || renderer.calls != 1 {
		t.Errorf("Expected one skip and one render, got %+v calls=%d", summary.Progress, renderer.calls)
	}
	if data, _ := afero.ReadFile(fs, items[0].Output); string(data) != "old" {
		t.Errorf("Expected existing file untouched, got %q", data)
	}
}

func TestRun_Timeout(t *testing.T) {
	fs := afero.NewMemMapFs()
	renderer := &fakeRenderer{delay: time.Second}

	opts := testOptions()
	opts.Concurrency = 1
	opts.Timeout = 20 * time.Millisecond

	summary, err := NewProcessor(renderer, output.NewImageWriter(fs, nil), nil).
		Run(context.Background(), testItems(t, "1", "2", "3"), opts)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline error, got %v", err)
	}
	if summary.Succeeded != 0 {
		t.Errorf("Expected nothing to succeed, got %+v", summary.Progress)
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	p := NewProcessor(&fakeRenderer{}, output.NewImageWriter(afero.NewMemMapFs(), nil), nil)

	if _, err := p.Run(context.Background(), nil, Options{Size: staticmap.NewSize(1, 1)}); err == nil {
		t.Error("Expected error for zero concurrency")
	}
	if _, err := p.Run(context.Background(), nil, Options{Concurrency: 1}); err == nil {
		t.Error("Expected error for empty size")
	}
}

func TestProgress_EstimateCompletion(t *testing.T) {
	p := Progress{Total: 10, Processed: 5, StartTime: time.Now().Add(-5 * time.Second)}
	if eta := time.Until(p.EstimateCompletion()); eta < 4*time.Second || eta > 6*time.Second {
		t.Errorf("Expected about 5s remaining, got %s", eta)
	}

	done := Progress{Total: 4, Processed: 4, StartTime: time.Now().Add(-time.Second)}
	if eta := time.Until(done.EstimateCompletion()); eta > time.Second {
		t.Errorf("Expected completion now, got %s", eta)
	}
	if done.CalculateProgress() != 100 {
		t.Errorf("Expected 100%%, got %v", done.CalculateProgress())
	}
}
