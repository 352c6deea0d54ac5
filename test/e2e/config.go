package e2e

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/filesmanager/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// MetadataStoreType selects the metadata, queue and session backends.
type MetadataStoreType string

const (
	MetadataMemory MetadataStoreType = "memory"
	MetadataBadger MetadataStoreType = "badger"
)

// ContentStoreType selects the blob backend.
type ContentStoreType string

const (
	ContentMemory     ContentStoreType = "memory"
	ContentFilesystem ContentStoreType = "filesystem"
	ContentS3         ContentStoreType = "s3"
)

// TestConfig is one combination of backends.
type TestConfig struct {
	Name          string
	MetadataStore MetadataStoreType
	ContentStore  ContentStoreType

	// Set by SetupS3Config.
	s3Endpoint string
	s3Bucket   string
}

func (tc *TestConfig) String() string {
	return fmt.Sprintf("%s/%s", tc.MetadataStore, tc.ContentStore)
}

// Build returns a validated configuration whose on-disk state lives in
// dataDir. Building twice with the same dataDir reopens the same state.
func (tc *TestConfig) Build(t testing.TB, dataDir string) *config.Config {
	t.Helper()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = "ERROR"
	cfg.Server.Metrics.Enabled = false
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.GC.Enabled = false
	cfg.Sessions.BcryptCost = bcrypt.MinCost
	cfg.Queue.Options.PollInterval = 20 * time.Millisecond

	store := string(tc.MetadataStore)
	cfg.Metadata.Type = store
	cfg.Queue.Type = store
	cfg.Sessions.Type = store
	cfg.Metadata.Badger = map[string]any{"db_path": filepath.Join(dataDir, "metadata")}
	cfg.Queue.Badger = map[string]any{"db_path": filepath.Join(dataDir, "queue")}
	cfg.Sessions.Badger = map[string]any{"db_path": filepath.Join(dataDir, "sessions")}

	cfg.Content.Type = string(tc.ContentStore)
	cfg.Content.Filesystem = map[string]any{"path": filepath.Join(dataDir, "blobs")}
	if tc.ContentStore == ContentS3 {
		cfg.Content.S3 = map[string]any{
			"region":            "us-east-1",
			"bucket":            tc.s3Bucket,
			"endpoint":          tc.s3Endpoint,
			"access_key_id":     "test",
			"secret_access_key": "test",
			"key_prefix":        "e2e/",
		}
	}

	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Invalid test configuration %s: %v", tc, err)
	}
	return cfg
}

// AllConfigurations returns the configurations that need no external
// service.
func AllConfigurations() []*TestConfig {
	return []*TestConfig{
		{Name: "memory-memory", MetadataStore: MetadataMemory, ContentStore: ContentMemory},
		{Name: "memory-filesystem", MetadataStore: MetadataMemory, ContentStore: ContentFilesystem},
		{Name: "badger-filesystem", MetadataStore: MetadataBadger, ContentStore: ContentFilesystem},
	}
}

// S3Configurations returns configurations that need Localstack.
func S3Configurations() []*TestConfig {
	return []*TestConfig{
		{Name: "memory-s3", MetadataStore: MetadataMemory, ContentStore: ContentS3},
		{Name: "badger-s3", MetadataStore: MetadataBadger, ContentStore: ContentS3},
	}
}
