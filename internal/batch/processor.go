// internal/batch/processor.go - Batch rendering implementation
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/logger"
	"github.com/valpere/boundary_staticmap/internal/output"
)

// Processor renders many areas with bounded concurrency
type Processor struct {
	renderer Renderer
	writer   *output.ImageWriter
	logger   *zerolog.Logger
}

// NewProcessor creates a new batch processor
func NewProcessor(renderer Renderer, writer *output.ImageWriter, log *zerolog.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		renderer: renderer,
		writer:   writer,
		logger:   log,
	}
}

// Run renders every item and writes it to its output path. Failed items do
// not stop the run unless FailOnError is set; their errors are combined in
// the returned error. The summary is returned even when the error is not nil.
func (bp *Processor) Run(ctx context.Context, items []Item, opts Options) (*Summary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	ctx, abort := context.WithCancel(ctx)
	defer abort()

	start := time.Now()
	var (
		processed = atomic.NewInt64(0)
		succeeded = atomic.NewInt64(0)
		failed    = atomic.NewInt64(0)
		skipped   = atomic.NewInt64(0)
		aborted   = atomic.NewBool(false)

		mu   sync.Mutex
		errs error
	)

	report := func() {
		if opts.OnProgress == nil {
			return
		}
		opts.OnProgress(Progress{
			Total:     int64(len(items)),
			Processed: processed.Load(),
			Succeeded: succeeded.Load(),
			Failed:    failed.Load(),
			Skipped:   skipped.Load(),
			StartTime: start,
		})
	}

	results := make([]*ItemResult, len(items))
	p := pool.New().WithMaxGoroutines(opts.Concurrency)

	for i, item := range items {
		p.Go(func() {
			defer report()

			if err := ctx.Err(); err != nil {
				results[i] = &ItemResult{Item: item, Skipped: true, Error: err.Error(), err: err}
				skipped.Inc()
				return
			}

			res := bp.process(ctx, item, opts)
			results[i] = res
			processed.Inc()

			switch {
			case res.err != nil:
				failed.Inc()
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", item.Request, res.err))
				mu.Unlock()

				if opts.FailOnError && aborted.CAS(false, true) {
					bp.logger.Warn().Str("area", item.Request.String()).Msg("aborting batch after failure")
					abort()
				}
			case res.Skipped:
				skipped.Inc()
			default:
				succeeded.Inc()
			}
		})
	}
	p.Wait()

	// A deadline that cut the run short is reported once, not per skipped item
	if err := ctx.Err(); err != nil && !aborted.Load() && skipped.Load() > 0 {
		errs = multierr.Append(errs, fmt.Errorf("batch stopped: %w", context.Cause(ctx)))
	}

	summary := &Summary{
		Progress: Progress{
			Total:     int64(len(items)),
			Processed: processed.Load(),
			Succeeded: succeeded.Load(),
			Failed:    failed.Load(),
			Skipped:   skipped.Load(),
			StartTime: start,
		},
		Duration: time.Since(start),
		Stages:   make(map[string]int),
		Results:  results,
	}
	for _, r := range results {
		if r.err == nil && !r.Skipped {
			summary.Stages[r.Stage.String()]++
		}
	}

	bp.logger.Info().
		Int64("total", summary.Total).
		Int64("succeeded", summary.Succeeded).
		Int64("failed", summary.Failed).
		Int64("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("batch finished")

	return summary, errs
}

// process renders and writes a single item
func (bp *Processor) process(ctx context.Context, item Item, opts Options) *ItemResult {
	start := time.Now()
	res := &ItemResult{Item: item}

	if opts.SkipExisting && bp.writer.Exists(item.Output) {
		res.Skipped = true
		return res
	}

	rendered, err := bp.renderer.RenderArea(ctx, item.Request, opts.Size)
	if rendered != nil && rendered.Plan != nil {
		res.Stage = rendered.Plan.Stage
		res.URLLength = rendered.Plan.URLLength()
	}
	if err == nil {
		res.Cached = rendered.Cached
		res.Bytes = len(rendered.Image)
		err = bp.writer.Write(item.Output, rendered.Image)
	}

	res.Duration = time.Since(start)
	if err != nil {
		res.err = err
		res.Error = err.Error()
		bp.logger.Debug().Err(err).Str("area", item.Request.String()).Msg("item failed")
		return res
	}

	bp.logger.Debug().
		Str("area", item.Request.String()).
		Str("stage", res.Stage.String()).
		Str("output", item.Output).
		Dur("duration", res.Duration).
		Msg("item rendered")
	return res
}

func (o Options) validate() error {
	if o.Concurrency <= 0 {
		return internal.NewError(internal.ErrorCodeValidation, "concurrency must be positive", nil)
	}
	if err := o.Size.Validate(); err != nil {
		return internal.NewError(internal.ErrorCodeValidation, "invalid image size", err)
	}
	return nil
}

// Errors splits a combined batch error into the per-item errors
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	return multierr.Errors(err)
}
