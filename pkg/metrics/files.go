package metrics

import (
	"github.com/marmos91/filesmanager/pkg/files"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// filesMetrics is the Prometheus implementation of files.Metrics.
type filesMetrics struct {
	createsTotal         *prometheus.CounterVec
	readsTotal           *prometheus.CounterVec
	enqueueFailuresTotal prometheus.Counter
}

// NewFilesMetrics creates a Prometheus-backed files.Metrics.
//
// Returns nil if metrics are not enabled; the File Manager then uses its
// no-op implementation.
func NewFilesMetrics() files.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newFilesMetrics(GetRegistry())
}

func newFilesMetrics(reg prometheus.Registerer) *filesMetrics {
	return &filesMetrics{
		createsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filesmanager_files_created_total",
				Help: "Total number of create requests by file type and outcome",
			},
			[]string{"type", "outcome"},
		),
		readsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filesmanager_files_reads_total",
				Help: "Total number of content reads by variant and outcome",
			},
			[]string{"variant", "outcome"},
		),
		enqueueFailuresTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "filesmanager_thumbnail_enqueue_failures_total",
				Help: "Thumbnail jobs that could not be queued after a successful create",
			},
		),
	}
}

func (m *filesMetrics) RecordCreate(fileType string, err error) {
	m.createsTotal.WithLabelValues(typeLabel(fileType), outcome(err)).Inc()
}

func (m *filesMetrics) RecordEnqueueFailure() {
	m.enqueueFailuresTotal.Inc()
}

func (m *filesMetrics) RecordRead(variant string, err error) {
	m.readsTotal.WithLabelValues(variant, outcome(err)).Inc()
}

// outcome labels a File Manager result by error kind, keeping
// cardinality bounded.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return files.KindOf(err).String()
}

// typeLabel keeps arbitrary client input out of label values.
func typeLabel(fileType string) string {
	switch fileType {
	case "folder", "file", "image":
		return fileType
	default:
		return "invalid"
	}
}
