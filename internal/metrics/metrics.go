package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "activityscan"

// Collector exposes Prometheus metrics for inbound HTTP requests and scan passes.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	scansTotal         *prometheus.CounterVec
	scanDuration       prometheus.Histogram
	recordsTotal       *prometheus.CounterVec
	flagsTotal         *prometheus.CounterVec
	recordErrorsTotal  *prometheus.CounterVec
	comparisonDuration *prometheus.HistogramVec
}

// New constructs a collector on a private registry.
func New() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Scan passes by outcome.",
		}, []string{"outcome"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Wall time of a full scan pass.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "records_total",
			Help:      "Screenshot records visited, by outcome.",
		}, []string{"outcome"}),
		flagsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "flags_total",
			Help:      "Flag reasons emitted, by rule.",
		}, []string{"kind"}),
		recordErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "record_errors_total",
			Help:      "Per-record failures that were logged and skipped.",
		}, []string{"kind"}),
		comparisonDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "vision",
			Name:      "comparison_duration_seconds",
			Help:      "Latency of vision service comparisons.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}

	for _, collector := range []prometheus.Collector{
		c.requestDuration,
		c.requestTotal,
		c.scansTotal,
		c.scanDuration,
		c.recordsTotal,
		c.flagsTotal,
		c.recordErrorsTotal,
		c.comparisonDuration,
	} {
		if err := c.registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveScan records a finished scan pass. outcome is "completed" or "failed".
func (c *Collector) ObserveScan(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.scansTotal.WithLabelValues(outcome).Inc()
	c.scanDuration.Observe(duration.Seconds())
}

// ObserveRecord counts a visited record.
func (c *Collector) ObserveRecord(outcome string) {
	if c == nil {
		return
	}
	c.recordsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFlag counts an emitted flag reason.
func (c *Collector) ObserveFlag(kind string) {
	if c == nil {
		return
	}
	c.flagsTotal.WithLabelValues(kind).Inc()
}

// ObserveRecordError counts a per-record failure.
func (c *Collector) ObserveRecordError(kind string) {
	if c == nil {
		return
	}
	c.recordErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveComparison records one vision call. result is "unchanged", "changed" or "error".
func (c *Collector) ObserveComparison(result string, duration time.Duration) {
	if c == nil {
		return
	}
	c.comparisonDuration.WithLabelValues(result).Observe(duration.Seconds())
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
