package gc

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats describes one collection run.
type Stats struct {
	StartTime time.Time
	EndTime   time.Time

	ReferencedCount   uint64 // content ids referenced by records
	ExistingCount     uint64 // blobs in the content store
	OrphanedCount     uint64 // unreferenced blobs older than MinAge
	SkippedYoungCount uint64 // unreferenced blobs younger than MinAge
	DeletedCount      uint64
	FailedCount       uint64
	ReclaimedBytes    uint64
}

// Duration returns how long the run took, or has taken so far.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary formats the counters for a log line.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d young=%d deleted=%d failed=%d reclaimed=%s duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount, s.SkippedYoungCount,
		s.DeletedCount, s.FailedCount, humanize.Bytes(s.ReclaimedBytes), s.Duration())
}
