package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NamespaceMetrics provides observability for namespace engine operations.
//
// Implementations collect the outcome and latency of every engine call, the
// number of content bytes moved by reads and writes, and the number of live
// entries per catalog.
//
// This interface is optional - if not provided to the engine, operations
// proceed without metrics collection (zero overhead).
//
// Example usage:
//
//	// With metrics enabled
//	m := metrics.NewNamespaceMetrics("badger")
//	ns, err := namespace.New(dirs, files, namespace.Config{}, namespace.WithMetrics(m))
//
//	// Without metrics (no-op)
//	ns, err := namespace.New(dirs, files, namespace.Config{})
type NamespaceMetrics interface {
	// RecordOperation records a completed engine operation with its name,
	// duration, and outcome.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "GetAttributes", "Write", "ListChildren")
	//   - duration: Time taken to complete the operation
	//   - err: Error if operation failed, nil if successful
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordBytes records content bytes read or written.
	//
	// Parameters:
	//   - direction: "read" or "write"
	//   - bytes: Number of bytes transferred
	RecordBytes(direction string, bytes int64)

	// SetEntries updates the live entry count of a catalog.
	//
	// Parameters:
	//   - kind: "directory" or "file"
	//   - count: Current number of entries
	SetEntries(kind string, count int)
}

// namespaceMetrics is the Prometheus implementation of NamespaceMetrics.
type namespaceMetrics struct {
	storeType         string
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
	entries           *prometheus.GaugeVec
}

// NewNamespaceMetrics creates a new Prometheus-backed NamespaceMetrics instance.
//
// Parameters:
//   - storeType: Catalog backend (e.g., "memory", "badger")
//     Used as a label to distinguish metrics from different backends.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewNamespaceMetrics(storeType string) NamespaceMetrics {
	if !IsEnabled() {
		return NewNoopNamespaceMetrics()
	}
	return newNamespaceMetrics(GetRegistry(), storeType)
}

// NewNoopNamespaceMetrics returns a NamespaceMetrics that discards everything.
func NewNoopNamespaceMetrics() NamespaceMetrics {
	return noopNamespaceMetrics{}
}

func newNamespaceMetrics(reg prometheus.Registerer, storeType string) *namespaceMetrics {
	return &namespaceMetrics{
		storeType: storeType,
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lsysfs_namespace_operations_total",
				Help: "Total number of namespace operations by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "lsysfs_namespace_operation_duration_seconds",
				Help: "Duration of namespace operations in seconds",
				Buckets: []float64{
					0.00001, // 10µs
					0.00005, // 50µs
					0.0001,  // 100µs
					0.0005,  // 500µs
					0.001,   // 1ms
					0.005,   // 5ms
					0.01,    // 10ms
					0.05,    // 50ms
					0.1,     // 100ms
				},
			},
			[]string{"store_type", "operation"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lsysfs_namespace_bytes_total",
				Help: "Total content bytes read or written",
			},
			[]string{"store_type", "direction"},
		),
		entries: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lsysfs_namespace_entries",
				Help: "Current number of entries per catalog",
			},
			[]string{"store_type", "kind"},
		),
	}
}

func (m *namespaceMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(m.storeType, operation, status).Inc()
	m.operationDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}

func (m *namespaceMetrics) RecordBytes(direction string, bytes int64) {
	if bytes <= 0 {
		return
	}
	m.bytesTotal.WithLabelValues(m.storeType, direction).Add(float64(bytes))
}

func (m *namespaceMetrics) SetEntries(kind string, count int) {
	m.entries.WithLabelValues(m.storeType, kind).Set(float64(count))
}

// noopNamespaceMetrics is a no-op implementation of NamespaceMetrics with zero overhead.
type noopNamespaceMetrics struct{}

func (noopNamespaceMetrics) RecordOperation(operation string, duration time.Duration, err error) {}
func (noopNamespaceMetrics) RecordBytes(direction string, bytes int64)                          {}
func (noopNamespaceMetrics) SetEntries(kind string, count int)                                  {}
