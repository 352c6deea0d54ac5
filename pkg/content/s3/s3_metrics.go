package s3

import "time"

// S3Metrics observes S3 operations.
//
// pkg/metrics provides the Prometheus implementation; the store falls back to
// a no-op when none is configured.
type S3Metrics interface {
	// ObserveOperation records the outcome and latency of one S3 call.
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records payload bytes moved in direction "read" or "write".
	RecordBytes(direction string, bytes int64)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, time.Duration, error) {}
func (noopMetrics) RecordBytes(string, int64)                     {}
