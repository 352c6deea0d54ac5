package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/content"
	contentFs "github.com/marmos91/filesmanager/pkg/content/fs"
	contentMemory "github.com/marmos91/filesmanager/pkg/content/memory"
	contentS3 "github.com/marmos91/filesmanager/pkg/content/s3"
	"github.com/marmos91/filesmanager/pkg/metadata"
	metadataBadger "github.com/marmos91/filesmanager/pkg/metadata/badger"
	metadataMemory "github.com/marmos91/filesmanager/pkg/metadata/memory"
	"github.com/marmos91/filesmanager/pkg/queue"
	queueBadger "github.com/marmos91/filesmanager/pkg/queue/badger"
	queueMemory "github.com/marmos91/filesmanager/pkg/queue/memory"
	"github.com/marmos91/filesmanager/pkg/session"
	sessionBadger "github.com/marmos91/filesmanager/pkg/session/badger"
	sessionMemory "github.com/marmos91/filesmanager/pkg/session/memory"
	"github.com/mitchellh/mapstructure"
)

// decodeOptions decodes a store section into out, converting duration
// strings such as "30s".
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

// ============================================================================
// Metadata Store
// ============================================================================

// CreateMetadataStore creates the metadata store selected by cfg.Type.
//
// Supported types:
//   - "memory": pkg/metadata/memory (ephemeral)
//   - "badger": pkg/metadata/badger (persistent)
func CreateMetadataStore(ctx context.Context, cfg *MetadataConfig) (metadata.MetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "memory":
		var storeCfg metadataMemory.MemoryMetadataStoreConfig
		if err := decodeOptions(cfg.Memory, &storeCfg); err != nil {
			return nil, fmt.Errorf("failed to decode memory metadata store config: %w", err)
		}
		return metadataMemory.NewMemoryMetadataStore(storeCfg), nil

	case "badger":
		var storeCfg metadataBadger.BadgerMetadataStoreConfig
		if err := decodeOptions(cfg.Badger, &storeCfg); err != nil {
			return nil, fmt.Errorf("failed to decode badger metadata store config: %w", err)
		}
		if storeCfg.DBPath == "" && !storeCfg.InMemory {
			return nil, fmt.Errorf("badger metadata store: db_path is required")
		}
		store, err := metadataBadger.NewBadgerMetadataStore(ctx, storeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger metadata store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown metadata store type: %q (supported: memory, badger)", cfg.Type)
	}
}

// ============================================================================
// Content Store
// ============================================================================

// CreateContentStore creates the content store selected by cfg.Type.
//
// Supported types:
//   - "filesystem": pkg/content/fs (local directory)
//   - "memory": pkg/content/memory (ephemeral)
//   - "s3": pkg/content/s3 (Amazon S3 or compatible storage)
//
// s3Metrics may be nil.
func CreateContentStore(ctx context.Context, cfg *ContentConfig, s3Metrics contentS3.S3Metrics) (content.ContentStore, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemContentStore(ctx, cfg.Filesystem)
	case "memory":
		store, err := contentMemory.NewMemoryContentStore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory content store: %w", err)
		}
		return store, nil
	case "s3":
		return createS3ContentStore(ctx, cfg.S3, s3Metrics)
	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
}

func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.ContentStore, error) {
	var storeCfg contentFs.FSContentStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}
	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentFs.NewFSContentStore(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}
	return store, nil
}

// s3Options is decoded from the content.s3 section.
type s3Options struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

func createS3ContentStore(ctx context.Context, options map[string]any, metrics contentS3.S3Metrics) (content.ContentStore, error) {
	var storeCfg s3Options
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}
	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS config
	// ========================================================================

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(storeCfg.Region),
	}

	// Static credentials when given, otherwise the default credential chain.
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(storeCfg.AccessKeyID, storeCfg.SecretAccessKey, ""),
		))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 client
	// ========================================================================

	// Custom endpoints (MinIO, Localstack) need path-style addressing.
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if storeCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(storeCfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 content store
	// ========================================================================

	store, err := contentS3.NewS3ContentStore(ctx, contentS3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// ============================================================================
// Queue
// ============================================================================

// CreateQueue creates the thumbnail job queue selected by cfg.Type.
func CreateQueue(ctx context.Context, cfg *QueueConfig) (queue.Queue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "memory":
		return queueMemory.NewMemoryQueue(cfg.Options), nil

	case "badger":
		var storeCfg queueBadger.BadgerQueueConfig
		if err := decodeOptions(cfg.Badger, &storeCfg); err != nil {
			return nil, fmt.Errorf("failed to decode badger queue config: %w", err)
		}
		if storeCfg.DBPath == "" && !storeCfg.InMemory {
			return nil, fmt.Errorf("badger queue: db_path is required")
		}
		q, err := queueBadger.NewBadgerQueue(ctx, storeCfg, cfg.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger queue: %w", err)
		}
		return q, nil

	default:
		return nil, fmt.Errorf("unknown queue type: %q (supported: memory, badger)", cfg.Type)
	}
}

// ============================================================================
// Session Store
// ============================================================================

// CreateSessionStore creates the session token store selected by cfg.Type.
func CreateSessionStore(ctx context.Context, cfg *SessionsConfig) (session.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "memory":
		storeCfg := sessionMemory.MemorySessionStoreConfig{MaxTTL: cfg.TokenTTL}
		if err := decodeOptions(cfg.Memory, &storeCfg); err != nil {
			return nil, fmt.Errorf("failed to decode memory session store config: %w", err)
		}
		return sessionMemory.NewMemorySessionStore(storeCfg), nil

	case "badger":
		var storeCfg sessionBadger.BadgerSessionStoreConfig
		if err := decodeOptions(cfg.Badger, &storeCfg); err != nil {
			return nil, fmt.Errorf("failed to decode badger session store config: %w", err)
		}
		if storeCfg.DBPath == "" && !storeCfg.InMemory {
			return nil, fmt.Errorf("badger session store: db_path is required")
		}
		store, err := sessionBadger.NewBadgerSessionStore(ctx, storeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger session store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown session store type: %q (supported: memory, badger)", cfg.Type)
	}
}
