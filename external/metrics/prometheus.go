package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kikitori"

type PrometheusRecorder struct {
	registry *prometheus.Registry

	sessionsTotal   prometheus.Counter
	sessionsActive  prometheus.Gauge
	sessionDuration prometheus.Histogram
	chunksTotal     *prometheus.CounterVec
	chunkFailures   *prometheus.CounterVec
	audioBytes      prometheus.Counter
	stageDuration   *prometheus.HistogramVec
}

func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of interview sessions opened",
		}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently open interview sessions",
		}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Lifetime of interview sessions in seconds",
			Buckets:   []float64{10, 30, 60, 300, 600, 1200, 1800, 3600, 7200},
		}),
		chunksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Audio chunks processed, by outcome",
		}, []string{"outcome"}),
		chunkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_failures_total",
			Help:      "Audio chunk failures, by pipeline stage",
		}, []string{"stage"}),
		audioBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Decoded audio bytes received from clients",
		}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each chunk pipeline stage",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),
	}
}

func (r *PrometheusRecorder) SessionOpened() {
	r.sessionsTotal.Inc()
	r.sessionsActive.Inc()
}

func (r *PrometheusRecorder) SessionClosed(lifetime time.Duration) {
	r.sessionsActive.Dec()
	r.sessionDuration.Observe(lifetime.Seconds())
}

func (r *PrometheusRecorder) ChunkReceived(bytes int) {
	r.audioBytes.Add(float64(bytes))
}

func (r *PrometheusRecorder) ChunkProcessed(outcome string) {
	r.chunksTotal.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) ChunkFailed(stage string) {
	r.chunkFailures.WithLabelValues(stage).Inc()
}

func (r *PrometheusRecorder) ObserveStage(stage string, elapsed time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
