package config

import (
	"strings"
	"time"

	"github.com/marmos91/filesmanager/pkg/auth"
	"github.com/marmos91/filesmanager/pkg/gc"
	"github.com/marmos91/filesmanager/pkg/queue"
	"github.com/marmos91/filesmanager/pkg/thumbnail"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store maps get the keys of their own implementation only when missing
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	cfg.API.ApplyDefaults()
	applyMetadataDefaults(&cfg.Metadata)
	applyContentDefaults(&cfg.Content)
	applyQueueDefaults(&cfg.Queue)
	applySessionsDefaults(&cfg.Sessions)
	applyThumbnailDefaults(&cfg.Thumbnail, cfg.Queue.Options.LeaseDuration)
	applyGCDefaults(cfg)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

func applyMetadataDefaults(cfg *MetadataConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	setDefault(cfg.Badger, "db_path", "/tmp/files_manager/metadata")
}

// applyContentDefaults keeps the blob layout of the original deployment:
// blobs live directly under /tmp/files_manager.
func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	setDefault(cfg.Filesystem, "path", "/tmp/files_manager")
}

func applyQueueDefaults(cfg *QueueConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	cfg.Options = cfg.Options.WithDefaults()
	if cfg.ReaperInterval == 0 {
		cfg.ReaperInterval = cfg.Options.LeaseDuration / 2
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	setDefault(cfg.Badger, "db_path", "/tmp/files_manager/queue")
}

func applySessionsDefaults(cfg *SessionsConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = auth.DefaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = auth.DefaultBcryptCost
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	setDefault(cfg.Badger, "db_path", "/tmp/files_manager/sessions")
}

// applyThumbnailDefaults derives an unset job timeout from the lease so a
// shortened lease never makes the defaults invalid.
func applyThumbnailDefaults(cfg *ThumbnailConfig, lease time.Duration) {
	if cfg.Pool.JobTimeout == 0 && lease > 0 {
		cfg.Pool.JobTimeout = lease * 3 / 4
	}
	cfg.Pool = cfg.Pool.WithDefaults()
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = thumbnail.DefaultJPEGQuality
	}
}

// applyGCDefaults fills intervals only; Enabled keeps its explicit value.
func applyGCDefaults(cfg *Config) {
	if cfg.GC.Interval == 0 {
		cfg.GC.Interval = 24 * time.Hour
	}
	if cfg.GC.MinAge == 0 {
		cfg.GC.MinAge = time.Hour
	}
	if cfg.GC.Concurrency == 0 {
		cfg.GC.Concurrency = 4
	}
	if cfg.GC.RunTimeout == 0 {
		cfg.GC.RunTimeout = 10 * time.Minute
	}
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

// GetDefaultConfig returns a Config with all default values applied.
//
// Used to generate the sample configuration file and in tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Metrics: MetricsConfig{Enabled: true},
		},
		Content: ContentConfig{
			S3: map[string]any{
				"region":     "us-east-1",
				"bucket":     "",
				"key_prefix": "",
				"endpoint":   "",
			},
		},
		Queue: QueueConfig{
			Options: queue.DefaultOptions(),
		},
		GC: gc.Config{Enabled: true},
	}

	ApplyDefaults(cfg)
	return cfg
}
