// Package metrics exposes what an lsysfs mount is doing as Prometheus series.
//
// Two collectors exist: NamespaceMetrics counts engine operations, bytes moved
// and live entries per catalog; FUSEMetrics counts kernel requests by opcode
// and errno. Both come in a Prometheus flavor and a no-op flavor. The
// constructors pick the no-op flavor until InitRegistry has run, so callers
// never branch on whether metrics are configured:
//
//	metrics.InitRegistry() // only when metrics.enabled is set
//
//	ns, _ := namespace.New(dirs, files, cfg,
//		namespace.WithMetrics(metrics.NewNamespaceMetrics("memory")))
//	srv, _ := fuse.Mount(ns, opts, metrics.NewFUSEMetrics())
//
// Server publishes the registry on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// registry is written once by InitRegistry and read by every constructor
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the process-wide registry and enables metrics.
//
// Besides the lsysfs series the registry carries the Go runtime and process
// collectors, so a scrape also shows heap growth from file content and the
// FUSE daemon's file descriptors. Calls after the first are no-ops.
func InitRegistry() {
	registryOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry = reg
	})
}

// GetRegistry returns the registry, or nil while metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has run.
func IsEnabled() bool {
	return GetRegistry() != nil
}
