// Package metrics holds the Prometheus side of the service's metrics.
//
// Consumers (files, thumbnail, content/s3, api) declare their own metrics
// interfaces with no-op fallbacks; this package implements them. Every
// constructor returns nil until InitRegistry has been called, so a
// disabled configuration costs nothing:
//
//	metrics.InitRegistry()
//	manager := files.NewManager(md, cs, q, files.Options{
//		Metrics: metrics.NewFilesMetrics(),
//	})
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the global registry with Go runtime and process
// collectors. Calls after the first are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		r := prometheus.NewRegistry()
		r.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry = r
	})
}

// GetRegistry returns the global registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return registry != nil
}
