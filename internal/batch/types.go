// internal/batch/types.go - Batch rendering types
package batch

import (
	"context"
	"time"

	"github.com/valpere/boundary_staticmap/internal/boundary"
	"github.com/valpere/boundary_staticmap/internal/mapgen"
	"github.com/valpere/boundary_staticmap/internal/service"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
)

// Renderer renders the boundary of one area
type Renderer interface {
	RenderArea(ctx context.Context, request boundary.Request, size staticmap.Size) (*service.Result, error)
}

// Item is one area to render and the file it is written to
type Item struct {
	Request boundary.Request `json:"request"`
	Output  string           `json:"output"`
}

// Options controls a batch run
type Options struct {
	Concurrency  int
	Timeout      time.Duration
	FailOnError  bool
	SkipExisting bool
	Size         staticmap.Size
	OnProgress   func(Progress)
}

// ItemResult represents the outcome of rendering one item
type ItemResult struct {
	Item      Item          `json:"item"`
	Stage     mapgen.Stage  `json:"stage,omitempty"`
	URLLength int           `json:"url_length,omitempty"`
	Bytes     int           `json:"bytes"`
	Cached    bool          `json:"cached"`
	Skipped   bool          `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`

	err error
}

// Err returns the error of a failed item
func (r *ItemResult) Err() error {
	return r.err
}

// Progress tracks how far a batch run has come
type Progress struct {
	Total     int64     `json:"total"`
	Processed int64     `json:"processed"`
	Succeeded int64     `json:"succeeded"`
	Failed    int64     `json:"failed"`
	Skipped   int64     `json:"skipped"`
	StartTime time.Time `json:"start_time"`
}

// Summary represents the result of a batch run, in item order
type Summary struct {
	Progress
	Duration time.Duration  `json:"duration"`
	Stages   map[string]int `json:"stages"`
	Results  []*ItemResult  `json:"results"`
}

// NewItems pairs requests with the output path chosen for each
func NewItems(requests []boundary.Request, outputPath func(boundary.Request) string) []Item {
	items := make([]Item, len(requests))
	for i, req := range requests {
		items[i] = Item{Request: req, Output: outputPath(req)}
	}
	return items
}

// CalculateProgress calculates the completion percentage
func (p Progress) CalculateProgress() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Processed) / float64(p.Total) * 100
}

// Throughput returns processed items per second since the start
func (p Progress) Throughput() float64 {
	elapsed := time.Since(p.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.Processed) / elapsed
}

// EstimateCompletion estimates when the run will complete based on current progress
func (p Progress) EstimateCompletion() time.Time {
	throughput := p.Throughput()
	if throughput == 0 {
		return time.Now().Add(time.Hour)
	}

	remaining := p.Total - p.Processed
	if remaining <= 0 {
		return time.Now()
	}
	return time.Now().Add(time.Duration(float64(remaining) / throughput * float64(time.Second)))
}
