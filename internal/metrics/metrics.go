// Package metrics exposes pipeline outcomes as Prometheus series.
package metrics

import (
	"net/http"
	"time"

	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "percepto"

type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	models   *prometheus.CounterVec
	engines  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the pipeline series plus the Go runtime collectors on a private registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Pipeline runs by result, failing stage and failure kind.",
		}, []string{"result", "stage", "kind"}),
		models: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "description_model_total",
			Help:      "Descriptions produced, by the model that answered.",
		}, []string{"model"}),
		engines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_engine_total",
			Help:      "Successful runs by the speech engine used, or none when audio was omitted.",
		}, []string{"engine"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Wall time of one pipeline run.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"result"}),
	}

	r.registry.MustRegister(
		r.requests, r.models, r.engines, r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveOutcome records one finished run.
func (r *Recorder) ObserveOutcome(out model.Outcome, took time.Duration) {
	result := "success"
	if out.Failure != nil {
		result = "failure"
		r.requests.WithLabelValues(result, string(out.Failure.Stage), kindLabel(out.Failure.Kind)).Inc()
	} else {
		r.requests.WithLabelValues(result, "", "").Inc()
	}
	r.duration.WithLabelValues(result).Observe(took.Seconds())

	if out.Description != nil {
		r.models.WithLabelValues(string(out.Description.ModelID)).Inc()
		engine := "none"
		if out.Audio != nil {
			engine = out.Audio.Engine
		}
		r.engines.WithLabelValues(engine).Inc()
	}
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func kindLabel(k model.Kind) string {
	if k == "" {
		return "unknown"
	}
	return string(k)
}
