package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FUSEMetrics provides observability for the FUSE adapter.
//
// It records every kernel request the adapter serves, independently of the
// engine operations the request maps to (a single Open with O_TRUNC, for
// example, is one request and two engine operations).
type FUSEMetrics interface {
	// RecordRequest records a completed request with its operation name,
	// duration, and errno (0 on success).
	//
	// Parameters:
	//   - operation: FUSE operation name (e.g., "LOOKUP", "READ", "MKDIR")
	//   - duration: Time taken to process the request
	//   - errno: Errno returned to the kernel, 0 if successful
	RecordRequest(operation string, duration time.Duration, errno uintptr)

	// RecordRequestStart increments the in-flight request gauge.
	RecordRequestStart(operation string)

	// RecordRequestEnd decrements the in-flight request gauge.
	RecordRequestEnd(operation string)
}

// fuseMetrics is the Prometheus implementation of FUSEMetrics.
type fuseMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
}

// NewFUSEMetrics creates a new Prometheus-backed FUSEMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewFUSEMetrics() FUSEMetrics {
	if !IsEnabled() {
		return NewNoopFUSEMetrics()
	}
	return newFUSEMetrics(GetRegistry())
}

// NewNoopFUSEMetrics returns a FUSEMetrics that discards everything.
func NewNoopFUSEMetrics() FUSEMetrics {
	return noopFUSEMetrics{}
}

func newFUSEMetrics(reg prometheus.Registerer) *fuseMetrics {
	return &fuseMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lsysfs_fuse_requests_total",
				Help: "Total number of FUSE requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lsysfs_fuse_request_duration_seconds",
				Help:    "Duration of FUSE requests in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"operation"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lsysfs_fuse_requests_in_flight",
				Help: "Current number of FUSE requests being processed",
			},
			[]string{"operation"},
		),
	}
}

func (m *fuseMetrics) RecordRequest(operation string, duration time.Duration, errno uintptr) {
	status := "success"
	if errno != 0 {
		status = "error"
	}

	m.requestsTotal.WithLabelValues(operation, status).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *fuseMetrics) RecordRequestStart(operation string) {
	m.requestsInFlight.WithLabelValues(operation).Inc()
}

func (m *fuseMetrics) RecordRequestEnd(operation string) {
	m.requestsInFlight.WithLabelValues(operation).Dec()
}

// noopFUSEMetrics is a no-op implementation of FUSEMetrics with zero overhead.
type noopFUSEMetrics struct{}

func (noopFUSEMetrics) RecordRequest(operation string, duration time.Duration, errno uintptr) {}
func (noopFUSEMetrics) RecordRequestStart(operation string)                                 {}
func (noopFUSEMetrics) RecordRequestEnd(operation string)                                   {}
