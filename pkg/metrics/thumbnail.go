package metrics

import (
	"strconv"
	"time"

	"github.com/marmos91/filesmanager/pkg/thumbnail"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// thumbnailMetrics is the Prometheus implementation of thumbnail.Metrics.
type thumbnailMetrics struct {
	jobsTotal      *prometheus.CounterVec
	jobDuration    prometheus.Histogram
	resizeDuration *prometheus.HistogramVec
	resizeErrors   *prometheus.CounterVec
}

// NewThumbnailMetrics creates a Prometheus-backed thumbnail.Metrics.
// Returns nil if metrics are not enabled.
func NewThumbnailMetrics() thumbnail.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newThumbnailMetrics(GetRegistry())
}

func newThumbnailMetrics(reg prometheus.Registerer) *thumbnailMetrics {
	return &thumbnailMetrics{
		jobsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filesmanager_thumbnail_jobs_total",
				Help: "Thumbnail job attempts by outcome (completed, failed, permanent, panic)",
			},
			[]string{"outcome"},
		),
		jobDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "filesmanager_thumbnail_job_duration_seconds",
				Help: "Duration of thumbnail job attempts in seconds",
				Buckets: []float64{
					0.01, // 10ms
					0.05, // 50ms
					0.1,  // 100ms
					0.5,  // 500ms
					1.0,  // 1s
					5.0,  // 5s
					30.0, // 30s
				},
			},
		),
		resizeDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filesmanager_thumbnail_duration_seconds",
				Help:    "Duration of generating and storing one thumbnail, by width",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"width"},
		),
		resizeErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filesmanager_thumbnail_errors_total",
				Help: "Failed thumbnails by width",
			},
			[]string{"width"},
		),
	}
}

func (m *thumbnailMetrics) RecordJob(outcome string, duration time.Duration) {
	m.jobsTotal.WithLabelValues(outcome).Inc()
	m.jobDuration.Observe(duration.Seconds())
}

func (m *thumbnailMetrics) RecordResize(width int, duration time.Duration, err error) {
	label := strconv.Itoa(width)
	m.resizeDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		m.resizeErrors.WithLabelValues(label).Inc()
	}
}
