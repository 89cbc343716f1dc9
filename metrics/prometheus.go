package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus is a Recorder backed by prometheus counters and histograms.
type Prometheus struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cacheOps *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewPrometheus creates a Prometheus recorder registered on reg. A nil reg
// uses the default registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prometheus{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restguard_requests_total",
				Help: "Total number of upstream requests",
			},
			[]string{"operation", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "restguard_request_duration_seconds",
				Help:    "Upstream request duration in seconds, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restguard_cache_operations_total",
				Help: "Total number of cache lookups",
			},
			[]string{"operation", "result"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restguard_errors_total",
				Help: "Total number of classified failures",
			},
			[]string{"operation", "kind"},
		),
	}
}

func (p *Prometheus) RecordRequest(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.requests.WithLabelValues(operation, status).Inc()
	p.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *Prometheus) RecordCacheOperation(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheOps.WithLabelValues(operation, result).Inc()
}

func (p *Prometheus) RecordError(operation string, kind string) {
	p.errors.WithLabelValues(operation, kind).Inc()
}

// Handler returns an http.Handler serving the default registry, for callers
// that want to expose /metrics next to their application.
func Handler() http.Handler {
	return promhttp.Handler()
}
