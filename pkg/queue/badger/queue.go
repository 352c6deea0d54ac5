package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/internal/badgerutil"
	"github.com/marmos91/filesmanager/pkg/queue"
)

// errNoReadyJob is internal: the lease transaction found nothing to lease.
var errNoReadyJob = errors.New("no ready job")

// BadgerQueue implements queue.Queue on top of BadgerDB.
//
// Jobs survive restarts: a job that was processing when the process died is
// redelivered once its lease expires and RequeueExpired runs.
//
// Lease Exclusivity:
// Leasing reads the first ready key and deletes it in the same transaction.
// Two consumers racing for the same key both read it, so BadgerDB's
// optimistic concurrency aborts the second commit with ErrConflict; the
// loser retries and picks the next key.
type BadgerQueue struct {
	db   *badger.DB
	opts queue.Options

	notify chan struct{}
	closed chan struct{}
	once   sync.Once

	// now is replaced in tests.
	now func() time.Time
}

// BadgerQueueConfig is decoded from the queue.badger config section.
type BadgerQueueConfig struct {
	// DBPath is the directory where BadgerDB stores queue files.
	DBPath string `mapstructure:"db_path"`

	// InMemory runs BadgerDB without touching disk. Used by tests.
	InMemory bool `mapstructure:"in_memory"`
}

// NewBadgerQueue opens (or creates) a persistent queue.
func NewBadgerQueue(ctx context.Context, cfg BadgerQueueConfig, opts queue.Options) (*BadgerQueue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger queue: db_path is required")
	}

	dbOpts := badger.DefaultOptions(cfg.DBPath)
	if cfg.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLoggingLevel(badger.WARNING)
	dbOpts = dbOpts.WithCompression(options.None)
	// The queue holds a handful of small keys; a small cache is plenty.
	dbOpts = dbOpts.WithBlockCacheSize(16 << 20)
	dbOpts = dbOpts.WithIndexCacheSize(8 << 20)

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	return &BadgerQueue{
		db:     db,
		opts:   opts.WithDefaults(),
		notify: make(chan struct{}, 1),
		closed: make(chan struct{}),
		now:    time.Now,
	}, nil
}

// ============================================================================
// Transactions
// ============================================================================

// update runs fn in a read-write transaction, replaying it on conflict.
func (q *BadgerQueue) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	return badgerutil.Update(ctx, q.db, badgerutil.DefaultRetryPolicy, "queue", fn)
}

func getJob(txn *badger.Txn, id string) (*queue.Job, error) {
	item, err := txn.Get(keyJob(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("job %s: %w", id, queue.ErrJobNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job queue.Job
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &job)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

func putJob(txn *badger.Txn, job *queue.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := txn.Set(keyJob(job.ID), data); err != nil {
		return fmt.Errorf("failed to store job: %w", err)
	}
	return nil
}

// wake signals one blocked Dequeue in this process.
func (q *BadgerQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *BadgerQueue) isClosed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}

// ============================================================================
// Queue Operations
// ============================================================================

func (q *BadgerQueue) Enqueue(ctx context.Context, payload []byte) (*queue.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.isClosed() {
		return nil, queue.ErrClosed
	}

	now := q.now()
	job := &queue.Job{
		ID:        uuid.NewString(),
		Payload:   append([]byte(nil), payload...),
		State:     queue.StateQueued,
		CreatedAt: now,
		UpdatedAt: now,
		ReadyAt:   now,
	}

	err := q.update(ctx, func(txn *badger.Txn) error {
		if err := putJob(txn, job); err != nil {
			return err
		}
		return txn.Set(keyReady(job.ReadyAt, job.ID), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.wake()
	return job.Clone(), nil
}

func (q *BadgerQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if q.isClosed() {
			return nil, queue.ErrClosed
		}

		job, err := q.tryLease(ctx)
		if err == nil {
			return job, nil
		}
		// Losing every lease race to other consumers is not a failure.
		if !errors.Is(err, errNoReadyJob) && !errors.Is(err, badger.ErrConflict) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.closed:
			return nil, queue.ErrClosed
		case <-q.notify:
		case <-ticker.C:
		}
	}
}

// tryLease leases the first ready job, or returns errNoReadyJob.
func (q *BadgerQueue) tryLease(ctx context.Context) (*queue.Job, error) {
	var leased *queue.Job

	err := q.update(ctx, func(txn *badger.Txn) error {
		now := q.now()

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixReady)
		it := txn.NewIterator(opts)

		var readyKey []byte
		var id string
		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			readyAt, jobID, err := parseReadyKey(it.Item().Key())
			if err != nil {
				it.Close()
				return err
			}
			if readyAt.After(now) {
				break
			}
			readyKey = it.Item().KeyCopy(nil)
			id = jobID
			break
		}
		it.Close()

		if readyKey == nil {
			return errNoReadyJob
		}

		job, err := getJob(txn, id)
		if err != nil {
			return err
		}

		job.State = queue.StateProcessing
		job.Attempts++
		job.UpdatedAt = now
		job.LeaseExpiresAt = now.Add(q.opts.LeaseDuration)

		if err := txn.Delete(readyKey); err != nil {
			return err
		}
		if err := txn.Set(keyLease(id), []byte(strconv.FormatInt(job.LeaseExpiresAt.UnixNano(), 10))); err != nil {
			return err
		}
		if err := putJob(txn, job); err != nil {
			return err
		}
		leased = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return leased, nil
}

// leasedJob loads a job and checks it holds a lease.
func leasedJob(txn *badger.Txn, id string) (*queue.Job, error) {
	if _, err := txn.Get(keyLease(id)); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("job %s: %w", id, queue.ErrJobNotFound)
		}
		return nil, fmt.Errorf("failed to get lease: %w", err)
	}
	return getJob(txn, id)
}

func (q *BadgerQueue) Ack(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return q.update(ctx, func(txn *badger.Txn) error {
		if _, err := leasedJob(txn, jobID); err != nil {
			return err
		}
		if err := txn.Delete(keyLease(jobID)); err != nil {
			return err
		}
		if err := txn.Delete(keyJob(jobID)); err != nil {
			return err
		}

		completed, err := readCounter(txn, keyCompleted)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyCompleted), []byte(strconv.Itoa(completed+1)))
	})
}

func (q *BadgerQueue) Nack(ctx context.Context, jobID string, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var dead bool
	err := q.update(ctx, func(txn *badger.Txn) error {
		job, err := leasedJob(txn, jobID)
		if err != nil {
			return err
		}

		dead = q.opts.Decide(job, cause, q.now())
		if err := txn.Delete(keyLease(jobID)); err != nil {
			return err
		}
		if dead {
			if err := txn.Set(keyDead(jobID), nil); err != nil {
				return err
			}
		} else if err := txn.Set(keyReady(job.ReadyAt, jobID), nil); err != nil {
			return err
		}
		return putJob(txn, job)
	})
	if err != nil {
		return err
	}

	if !dead {
		q.wake()
	}
	return nil
}

func (q *BadgerQueue) RequeueExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	moved := 0
	err := q.update(ctx, func(txn *badger.Txn) error {
		moved = 0
		now := q.now()

		type expiredLease struct {
			id string
		}
		var expired []expiredLease

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixLease)
		it := txn.NewIterator(opts)
		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				it.Close()
				return err
			}
			nanos, err := strconv.ParseInt(string(raw), 10, 64)
			if err != nil {
				it.Close()
				return fmt.Errorf("malformed lease %q: %w", item.Key(), err)
			}
			if time.Unix(0, nanos).After(now) {
				continue
			}
			expired = append(expired, expiredLease{id: strings.TrimPrefix(string(item.Key()), prefixLease)})
		}
		it.Close()

		for _, lease := range expired {
			job, err := getJob(txn, lease.id)
			if err != nil {
				return err
			}
			job.LeaseExpiresAt = time.Time{}
			job.UpdatedAt = now
			job.LastError = "lease expired"

			if err := txn.Delete(keyLease(lease.id)); err != nil {
				return err
			}
			if q.opts.Exhausted(job.Attempts) {
				job.State = queue.StateDead
				if err := txn.Set(keyDead(lease.id), nil); err != nil {
					return err
				}
			} else {
				job.State = queue.StateQueued
				job.ReadyAt = now
				if err := txn.Set(keyReady(now, lease.id), nil); err != nil {
					return err
				}
			}
			if err := putJob(txn, job); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to requeue expired leases: %w", err)
	}

	if moved > 0 {
		q.wake()
	}
	return moved, nil
}

func (q *BadgerQueue) Stats(ctx context.Context) (queue.Stats, error) {
	if err := ctx.Err(); err != nil {
		return queue.Stats{}, err
	}

	var stats queue.Stats
	err := q.db.View(func(txn *badger.Txn) error {
		stats.Queued = countPrefix(txn, prefixReady)
		stats.Processing = countPrefix(txn, prefixLease)
		stats.Dead = countPrefix(txn, prefixDead)

		completed, err := readCounter(txn, keyCompleted)
		if err != nil {
			return err
		}
		stats.Completed = completed
		return nil
	})
	if err != nil {
		return queue.Stats{}, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return stats, nil
}

func (q *BadgerQueue) DeadJobs(ctx context.Context, limit int) ([]*queue.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jobs := make([]*queue.Job, 0)
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixDead)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(jobs) >= limit {
				break
			}
			id := strings.TrimPrefix(string(it.Item().Key()), prefixDead)
			job, err := getJob(txn, id)
			if err != nil {
				return err
			}
			jobs = append(jobs, job)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dead jobs: %w", err)
	}
	return jobs, nil
}

// Healthcheck verifies the database answers a read transaction.
func (q *BadgerQueue) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.isClosed() {
		return queue.ErrClosed
	}

	err := q.db.View(func(txn *badger.Txn) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close wakes blocked consumers and closes the database.
func (q *BadgerQueue) Close() error {
	var err error
	q.once.Do(func() {
		close(q.closed)
		if cerr := q.db.Close(); cerr != nil {
			err = fmt.Errorf("failed to close BadgerDB: %w", cerr)
		}
	})
	return err
}

// ============================================================================
// Helpers
// ============================================================================

func countPrefix(txn *badger.Txn, prefix string) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	count := 0
	for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
		count++
	}
	return count
}

func readCounter(txn *badger.Txn, key string) (int, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("malformed counter %s: %w", key, err)
	}
	return n, nil
}

// Ensure interface compliance.
var _ queue.Queue = (*BadgerQueue)(nil)
