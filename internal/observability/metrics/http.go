package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	pipelineRequestsTotal *prometheus.CounterVec
	pipelineDuration      *prometheus.HistogramVec
	retrievedCandidates   *prometheus.HistogramVec
	gradesTotal           *prometheus.CounterVec
	citationAccuracy      *prometheus.HistogramVec
	pipelineConfidence    *prometheus.HistogramVec
	lowConfidenceTotal    *prometheus.CounterVec
	refusalsTotal         *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	pipelineRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Total completed answer pipeline runs by outcome.",
		},
		[]string{"service", "outcome"},
	)
	pipelineDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End-to-end answer pipeline duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		},
		[]string{"service"},
	)
	retrievedCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "retrieval",
			Name:      "candidates",
			Help:      "Distribution of retrieved candidates per question.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	gradesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "grades_total",
			Help:      "Total relevance grades issued by verdict.",
		},
		[]string{"service", "grade"},
	)
	citationAccuracy := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "citation_accuracy",
			Help:      "Distribution of per-answer citation accuracy.",
			Buckets:   []float64{0, 0.25, 0.5, 0.75, 0.85, 0.95, 1},
		},
		[]string{"service"},
	)
	pipelineConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "confidence",
			Help:      "Distribution of final answer confidence.",
			Buckets:   []float64{0, 0.25, 0.5, 0.7, 0.85, 0.95, 1},
		},
		[]string{"service"},
	)
	lowConfidenceTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "low_confidence_total",
			Help:      "Total answers flagged below the confidence threshold.",
		},
		[]string{"service"},
	)
	refusalsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "pipeline",
			Name:      "refusals_total",
			Help:      "Total questions answered with the insufficiency response.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		pipelineRequestsTotal,
		pipelineDuration,
		retrievedCandidates,
		gradesTotal,
		citationAccuracy,
		pipelineConfidence,
		lowConfidenceTotal,
		refusalsTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		pipelineRequestsTotal: pipelineRequestsTotal,
		pipelineDuration:      pipelineDuration,
		retrievedCandidates:   retrievedCandidates,
		gradesTotal:           gradesTotal,
		citationAccuracy:      citationAccuracy,
		pipelineConfidence:    pipelineConfidence,
		lowConfidenceTotal:    lowConfidenceTotal,
		refusalsTotal:         refusalsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordPipelineResponse folds one completed answer run into the pipeline
// metrics. Outcome is "answered", "low_confidence", or "refused".
func (m *HTTPServerMetrics) RecordPipelineResponse(service string, resp *domain.PipelineResponse, threshold float64, duration time.Duration) {
	if resp == nil {
		return
	}

	outcome := "answered"
	switch {
	case resp.Answer == domain.InsufficientEvidenceAnswer:
		outcome = "refused"
		m.refusalsTotal.WithLabelValues(service).Inc()
	case resp.Confidence < threshold:
		outcome = "low_confidence"
		m.lowConfidenceTotal.WithLabelValues(service).Inc()
	}

	m.pipelineRequestsTotal.WithLabelValues(service, outcome).Inc()
	m.pipelineDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.pipelineConfidence.WithLabelValues(service).Observe(resp.Confidence)
	m.citationAccuracy.WithLabelValues(service).Observe(resp.Validation.CitationAccuracy)
	for _, grade := range resp.Grades {
		m.gradesTotal.WithLabelValues(service, string(grade.Grade)).Inc()
	}
}

func (m *HTTPServerMetrics) RecordRetrievedCandidates(service, endpoint string, count int) {
	m.retrievedCandidates.WithLabelValues(service, endpoint).Observe(float64(count))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
