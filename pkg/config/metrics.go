package config

import (
	"github.com/marmos91/lsysfs/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// Namespace is the collector for engine operations (noop if disabled)
	Namespace metrics.NamespaceMetrics

	// FUSE is the collector for kernel requests (noop if disabled)
	FUSE metrics.FUSEMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled the global Prometheus registry is initialized and
// Prometheus-backed collectors are returned along with the HTTP server.
// Otherwise the server is nil and the collectors are no-ops.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Namespace: metrics.NewNoopNamespaceMetrics(),
			FUSE:      metrics.NewNoopFUSEMetrics(),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server: metrics.NewServer(metrics.ServerConfig{
			Host: cfg.Metrics.Host,
			Port: cfg.Metrics.Port,
		}),
		Namespace: metrics.NewNamespaceMetrics(cfg.Catalog.Type),
		FUSE:      metrics.NewFUSEMetrics(),
	}
}
