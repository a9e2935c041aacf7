package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	provisionCount  *prometheus.HistogramVec
	chunkCount      *prometheus.HistogramVec
	queueLag        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crag",
			Subsystem: "worker",
			Name:      "statute_process_total",
			Help:      "Total processed statutes by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "worker",
			Name:      "statute_process_duration_seconds",
			Help:      "Statute processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crag",
			Subsystem: "worker",
			Name:      "statute_process_in_flight",
			Help:      "Number of in-flight statute processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	provisionCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "worker",
			Name:      "statute_provisions",
			Help:      "Distribution of segmented provisions per statute.",
			Buckets:   []float64{0, 10, 25, 50, 100, 200, 350, 550},
		},
		[]string{"service"},
	)
	chunkCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "worker",
			Name:      "statute_chunks",
			Help:      "Distribution of indexed chunks per statute.",
			Buckets:   []float64{0, 10, 25, 50, 100, 250, 500, 1000, 2000},
		},
		[]string{"service"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crag",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between statute upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, provisionCount, chunkCount, queueLag)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		provisionCount:  provisionCount,
		chunkCount:      chunkCount,
		queueLag:        queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartStatute() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishStatute(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveStatuteShape(service string, provisions, chunks int) {
	m.provisionCount.WithLabelValues(service).Observe(float64(provisions))
	m.chunkCount.WithLabelValues(service).Observe(float64(chunks))
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
