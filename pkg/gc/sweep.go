package gc

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/content"
	"golang.org/x/sync/errgroup"
)

// dryRunSample caps how many orphans a dry run lists.
const dryRunSample = 10

// sweep runs one collection.
//
// Blobs are listed after the referenced ids are read, so a blob written
// in between is either referenced or younger than MinAge.
func (c *Collector) sweep(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: c.now()}
	defer func() { stats.EndTime = c.now() }()

	// ========================================================================
	// Step 1: Find orphans
	// ========================================================================

	referenced, err := c.md.ListContentIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list referenced content: %w", err)
	}
	stats.ReferencedCount = uint64(len(referenced))

	blobs, err := c.cs.ListAllContent(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list content: %w", err)
	}
	stats.ExistingCount = uint64(len(blobs))

	cutoff := stats.StartTime.Add(-c.config.MinAge)
	var orphans []content.ContentInfo
	for _, blob := range blobs {
		switch {
		case isReferenced(referenced, blob.ID):
		case blob.ModTime.After(cutoff):
			stats.SkippedYoungCount++
		default:
			orphans = append(orphans, blob)
		}
	}
	stats.OrphanedCount = uint64(len(orphans))

	if len(orphans) == 0 {
		return stats, nil
	}

	if c.config.DryRun {
		logDryRun(orphans)
		return stats, nil
	}

	// ========================================================================
	// Step 2: Delete them
	// ========================================================================

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)

	for _, blob := range orphans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := c.cs.Delete(gctx, blob.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Debug("GC: failed to delete %s: %v", blob.ID, err)
				stats.FailedCount++
				return nil
			}
			stats.DeletedCount++
			stats.ReclaimedBytes += uint64(blob.Size)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	logger.Info("GC: deleted %d blobs (%s), %d failed",
		stats.DeletedCount, humanize.Bytes(stats.ReclaimedBytes), stats.FailedCount)
	return stats, nil
}

func isReferenced(referenced map[string]struct{}, blobID string) bool {
	_, ok := referenced[content.BaseID(blobID)]
	return ok
}

func logDryRun(orphans []content.ContentInfo) {
	logger.Info("GC: dry run, would delete %d blobs:", len(orphans))
	for _, blob := range orphans[:min(len(orphans), dryRunSample)] {
		logger.Info("  - %s (%s)", blob.ID, humanize.Bytes(uint64(blob.Size)))
	}
	if len(orphans) > dryRunSample {
		logger.Info("  ... and %d more", len(orphans)-dryRunSample)
	}
}
