package thumbnail

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/marmos91/filesmanager/pkg/queue"
)

// Metrics observes thumbnail generation.
//
// pkg/metrics provides the Prometheus implementation. nil disables
// collection.
type Metrics interface {
	// RecordJob records a finished attempt. outcome is one of "completed",
	// "failed", "permanent" or "panic".
	RecordJob(outcome string, duration time.Duration)

	// RecordResize records one derivative.
	RecordResize(width int, duration time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordJob(string, time.Duration)         {}
func (noopMetrics) RecordResize(int, time.Duration, error) {}

// Worker turns a queued Job into thumbnail blobs.
type Worker struct {
	md        metadata.MetadataStore
	cs        content.ContentStore
	generator *Generator
	metrics   Metrics
}

// NewWorker creates a Worker. metrics may be nil.
func NewWorker(md metadata.MetadataStore, cs content.ContentStore, generator *Generator, metrics Metrics) *Worker {
	if generator == nil {
		generator = NewGenerator(0)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Worker{
		md:        md,
		cs:        cs,
		generator: generator,
		metrics:   metrics,
	}
}

// Process generates every width for the job's image.
//
// Failures that retrying cannot fix (bad payload, missing record, owner
// mismatch, record without content) are wrapped with queue.Permanent.
// Everything else, decode errors included, is returned as-is and retried
// until the queue's attempts are exhausted.
func (w *Worker) Process(ctx context.Context, job *queue.Job) error {
	// ========================================================================
	// Step 1: Validate payload and resolve the record
	// ========================================================================

	payload, err := DecodeJob(job.Payload)
	if err != nil {
		return queue.Permanent(err)
	}

	record, err := w.md.GetFile(ctx, payload.FileID)
	if err != nil {
		if metadata.IsNotFoundError(err) {
			return queue.Permanent(fmt.Errorf("file %s: %w", payload.FileID, err))
		}
		return fmt.Errorf("failed to get file %s: %w", payload.FileID, err)
	}
	if record.OwnerID != payload.OwnerID {
		return queue.Permanent(fmt.Errorf("file %s is not owned by %s", record.ID, payload.OwnerID))
	}
	if record.ContentID == "" {
		return queue.Permanent(fmt.Errorf("file %s has no content", record.ID))
	}

	// ========================================================================
	// Step 2: Load the original
	// ========================================================================

	src, err := w.readAll(ctx, record.ContentID)
	if err != nil {
		return err
	}

	// ========================================================================
	// Step 3: Derive each width
	// ========================================================================

	for _, width := range Widths {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		data, err := w.generator.Resize(src, width)
		if err == nil {
			err = w.cs.WriteContent(ctx, content.ThumbnailID(record.ContentID, width), data)
		}
		w.metrics.RecordResize(width, time.Since(start), err)
		if err != nil {
			return fmt.Errorf("thumbnail %d for file %s: %w", width, record.ID, err)
		}
	}

	logger.Debug("Thumbnails generated: file=%s content=%s", record.ID, record.ContentID)
	return nil
}

func (w *Worker) readAll(ctx context.Context, contentID string) ([]byte, error) {
	reader, err := w.cs.ReadContent(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to open content %s: %w", contentID, err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read content %s: %w", contentID, err)
	}
	return data, nil
}
