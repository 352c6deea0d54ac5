package config

import (
	contentS3 "github.com/marmos91/filesmanager/pkg/content/s3"
	"github.com/marmos91/filesmanager/pkg/files"
	"github.com/marmos91/filesmanager/pkg/metrics"
	promMetrics "github.com/marmos91/filesmanager/pkg/metrics/prometheus"
	"github.com/marmos91/filesmanager/pkg/thumbnail"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server exposes /metrics (nil if disabled)
	Server *metrics.Server

	// HTTP observes API requests (never nil, no-op if disabled)
	HTTP metrics.HTTPMetrics

	// Files observes the File Manager (nil if disabled)
	Files files.Metrics

	// Thumbnail observes the worker pool (nil if disabled)
	Thumbnail thumbnail.Metrics

	// S3 observes the S3 content store (nil if disabled)
	S3 contentS3.S3Metrics
}

// InitializeMetrics creates the metrics components.
//
// If metrics are enabled the global Prometheus registry is initialized and
// every component gets a Prometheus implementation. Otherwise consumers
// fall back to their no-op implementations.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		return &MetricsResult{HTTP: metrics.NewNoopHTTPMetrics()}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server:    metrics.NewServer(metrics.ServerConfig{Port: cfg.Server.Metrics.Port}),
		HTTP:      promMetrics.NewHTTPMetrics(),
		Files:     metrics.NewFilesMetrics(),
		Thumbnail: metrics.NewThumbnailMetrics(),
		S3:        metrics.NewS3Metrics(),
	}
}
