package metrics

import (
	"context"
	"time"

	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/queue"
	"github.com/prometheus/client_golang/prometheus"
)

// queueStatsTimeout bounds the Stats call made on each scrape.
const queueStatsTimeout = 2 * time.Second

var queueJobsDesc = prometheus.NewDesc(
	"filesmanager_queue_jobs",
	"Number of thumbnail jobs per state",
	[]string{"state"}, nil,
)

// queueCollector reads queue.Stats at scrape time, so the gauge never lags
// behind the store (dead jobs from a previous run included).
type queueCollector struct {
	queue queue.Queue
}

// RegisterQueue exposes q's job counts as filesmanager_queue_jobs{state}.
// It is a no-op when metrics are disabled.
func RegisterQueue(q queue.Queue) error {
	if !IsEnabled() {
		return nil
	}
	return GetRegistry().Register(&queueCollector{queue: q})
}

func (c *queueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- queueJobsDesc
}

func (c *queueCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), queueStatsTimeout)
	defer cancel()

	stats, err := c.queue.Stats(ctx)
	if err != nil {
		logger.Warn("Failed to collect queue stats: %v", err)
		ch <- prometheus.NewInvalidMetric(queueJobsDesc, err)
		return
	}

	for state, n := range map[queue.State]int{
		queue.StateQueued:     stats.Queued,
		queue.StateProcessing: stats.Processing,
		queue.StateCompleted:  stats.Completed,
		queue.StateDead:       stats.Dead,
	} {
		ch <- prometheus.MustNewConstMetric(queueJobsDesc, prometheus.GaugeValue, float64(n), string(state))
	}
}
