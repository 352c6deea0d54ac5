package badger

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/marmos91/filesmanager/internal/badgerutil"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/metadata"
)

// recordLockStripes is the number of mutexes SetPublic hashes ids onto.
const recordLockStripes = 64

// BadgerMetadataStore implements metadata.MetadataStore using BadgerDB for persistence.
//
// It is the default store for production deployments: records and users
// survive restarts, and every mutation runs inside a single BadgerDB
// transaction, so a record and its listing index entry are always written
// together.
//
// Thread Safety:
// BadgerDB transactions provide serializable isolation. Concurrent writers on
// the same keys get badger.ErrConflict, which update() retries with jittered
// backoff. SetPublic also serializes updates of one id on a striped mutex,
// so concurrent publish/unpublish of a record never conflict with each other.
//
// Storage Model:
// See keys.go for the key namespace layout.
//
// Caching:
// GetFile results are cached in an expirable LRU keyed by id. SetPublic is the
// only mutation of an existing record and refreshes the cache entry on commit.
type BadgerMetadataStore struct {
	db *badger.DB

	// seq allocates listing order. Leased in blocks; unused numbers are
	// released on Close so ordering stays monotonic across restarts.
	seq *badger.Sequence

	// cache is nil when caching is disabled.
	cache *expirable.LRU[string, *metadata.FileRecord]

	recordLocks [recordLockStripes]sync.Mutex
}

// BadgerMetadataStoreConfig contains configuration for creating a BadgerDB metadata store.
type BadgerMetadataStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files.
	DBPath string `mapstructure:"db_path"`

	// InMemory runs BadgerDB without touching disk. Used by tests.
	InMemory bool `mapstructure:"in_memory"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`

	// CacheSize is the number of file records kept in the read cache.
	// 0 disables the cache.
	CacheSize int `mapstructure:"cache_size"`

	// CacheTTL is the lifetime of a cached record (default: 30s)
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// NewBadgerMetadataStore opens (or creates) a BadgerDB metadata store.
//
// Parameters:
//   - ctx: Context for cancellation
//   - config: Database path, cache sizes and read cache settings
//
// Returns:
//   - *BadgerMetadataStore: A store ready for concurrent use
//   - error: Error if the database cannot be opened or context is cancelled
func NewBadgerMetadataStore(ctx context.Context, config BadgerMetadataStoreConfig) (*BadgerMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if config.DBPath == "" && !config.InMemory {
		return nil, fmt.Errorf("badger metadata store: db_path is required")
	}

	opts := badger.DefaultOptions(config.DBPath)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	// Records are small JSON documents; compression isn't worth the CPU.
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	seq, err := db.GetSequence([]byte(sequenceFiles), 100)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open file sequence: %w", err)
	}

	store := &BadgerMetadataStore{
		db:  db,
		seq: seq,
	}

	if config.CacheSize > 0 {
		ttl := config.CacheTTL
		if ttl == 0 {
			ttl = 30 * time.Second
		}
		store.cache = expirable.NewLRU[string, *metadata.FileRecord](config.CacheSize, nil, ttl)
		logger.Debug("Metadata cache enabled: size=%d ttl=%v", config.CacheSize, ttl)
	}

	return store, nil
}

// update runs fn in a read-write transaction, replaying it when BadgerDB
// reports a conflict with a concurrent writer.
func (s *BadgerMetadataStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	return badgerutil.Update(ctx, s.db, badgerutil.DefaultRetryPolicy, "metadata", fn)
}

// lockRecord serializes read-modify-write cycles on one record id.
func (s *BadgerMetadataStore) lockRecord(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &s.recordLocks[h.Sum32()%recordLockStripes]
	mu.Lock()
	return mu.Unlock
}

// Healthcheck verifies the database answers a read transaction.
func (s *BadgerMetadataStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close releases leased sequence numbers and closes the database.
func (s *BadgerMetadataStore) Close() error {
	if s.cache != nil {
		s.cache.Purge()
	}
	if err := s.seq.Release(); err != nil {
		logger.Warn("failed to release file sequence: %v", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
