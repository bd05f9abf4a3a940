// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Namespace prefixes every metric name.
const Namespace = "clipper"

// Verify interface compliance
var _ driven.Metrics = (*Recorder)(nil)

// Recorder implements driven.Metrics on a private Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	jobsTotal    *prometheus.CounterVec
	jobDuration  prometheus.Histogram
	modelCalls   *prometheus.CounterVec
	imageUploads *prometheus.CounterVec
	schemaCache  *prometheus.CounterVec
	queueDepth   *prometheus.GaugeVec
}

// NewRecorder creates a registry with the process collectors and the pipeline metrics.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "jobs_total",
			Help:      "Save jobs finished, by final status",
		}, []string{"status"}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of a save job from start to completion",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "model_calls_total",
			Help:      "Chat model calls, by provider and outcome",
		}, []string{"provider", "outcome"}),
		imageUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "image_uploads_total",
			Help:      "Image re-hosting attempts, by result",
		}, []string{"result"}),
		schemaCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "schema_cache_total",
			Help:      "Schema cache lookups, by result",
		}, []string{"result"}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_jobs",
			Help:      "Jobs in the queue, by state",
		}, []string{"state"}),
	}
}

func (r *Recorder) JobFinished(status string, elapsed time.Duration) {
	r.jobsTotal.WithLabelValues(status).Inc()
	r.jobDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) ModelCall(provider, outcome string) {
	r.modelCalls.WithLabelValues(provider, outcome).Inc()
}

func (r *Recorder) ImageUpload(result string) {
	r.imageUploads.WithLabelValues(result).Inc()
}

func (r *Recorder) SchemaCache(result string) {
	r.schemaCache.WithLabelValues(result).Inc()
}

// ObserveQueue records a queue stats snapshot.
func (r *Recorder) ObserveQueue(stats *driven.QueueStats) {
	if stats == nil {
		return
	}
	r.queueDepth.WithLabelValues("queued").Set(float64(stats.QueuedCount))
	r.queueDepth.WithLabelValues("running").Set(float64(stats.RunningCount))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
