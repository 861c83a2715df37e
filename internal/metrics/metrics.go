// Package metrics exposes Prometheus metrics for the rendering pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type BuildInfo struct {
	Version  string
	Revision string
}

// Provider owns a private registry so tests and embedders never touch the global one
type Provider struct {
	reg      *prometheus.Registry
	Pipeline *Pipeline
}

func Init(build BuildInfo) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "staticmap_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision"},
	)
	reg.MustRegister(info)
	if build.Version == "" {
		build.Version = "dev"
	}
	info.WithLabelValues(build.Version, build.Revision).Set(1)

	return &Provider{reg: reg, Pipeline: NewPipeline(reg)}
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// Pipeline groups the collectors updated while generating map images.
// A nil *Pipeline is valid and records nothing.
type Pipeline struct {
	stages    *prometheus.CounterVec
	urlLength prometheus.Histogram
	fetches   *prometheus.HistogramVec
	cache     *prometheus.CounterVec
}

func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staticmap_stage_accepted_total",
			Help: "Accepted URLs by degradation stage.",
		}, []string{"stage"}),
		urlLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "staticmap_url_length_chars",
			Help:    "Length of accepted static map URLs.",
			Buckets: []float64{256, 512, 1024, 2048, 4096, 6144, 8192},
		}),
		fetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staticmap_fetch_duration_seconds",
			Help:    "Rendering backend fetch latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staticmap_image_cache_requests_total",
			Help: "Image cache lookups by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(p.stages, p.urlLength, p.fetches, p.cache)
	}
	return p
}

// ObserveStage records the stage that produced the accepted URL
func (p *Pipeline) ObserveStage(stage string, urlLength int) {
	if p == nil {
		return
	}
	p.stages.WithLabelValues(stage).Inc()
	p.urlLength.Observe(float64(urlLength))
}

// ObserveFetch records one rendering backend round trip
func (p *Pipeline) ObserveFetch(d time.Duration, err error) {
	if p == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.fetches.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveCache records an image cache lookup
func (p *Pipeline) ObserveCache(hit bool) {
	if p == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cache.WithLabelValues(result).Inc()
}
