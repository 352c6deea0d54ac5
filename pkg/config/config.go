package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/filesmanager/pkg/api"
	"github.com/marmos91/filesmanager/pkg/gc"
	"github.com/marmos91/filesmanager/pkg/queue"
	"github.com/marmos91/filesmanager/pkg/thumbnail"
	"github.com/spf13/viper"
)

// Config represents the complete files manager configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (FILESMANAGER_*, plus FOLDER_PATH and PORT)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// Store Configuration Pattern:
// Each store section has a Type and one map per implementation (e.g.
// content.filesystem, content.s3). Only the map matching Type is decoded,
// by the factory for that store.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains process-wide settings
	Server ServerConfig `mapstructure:"server"`

	// API configures the HTTP API
	API api.Config `mapstructure:"api"`

	// Metadata selects the store for file records and users
	Metadata MetadataConfig `mapstructure:"metadata"`

	// Content selects the blob store for file bytes and thumbnails
	Content ContentConfig `mapstructure:"content"`

	// Queue selects the thumbnail job queue
	Queue QueueConfig `mapstructure:"queue"`

	// Sessions selects the session token store
	Sessions SessionsConfig `mapstructure:"sessions"`

	// Thumbnail configures the worker pool
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`

	// GC configures collection of unreferenced blobs
	GC gc.Config `mapstructure:"gc"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains process-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled starts the metrics server and registers collectors
	Enabled bool `mapstructure:"enabled"`

	// Port is the metrics server port (default: 9090)
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// MetadataConfig selects the metadata store.
type MetadataConfig struct {
	// Type is memory or badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Memory is used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// Badger is used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// ContentConfig selects the content store.
type ContentConfig struct {
	// Type is filesystem, memory or s3
	Type string `mapstructure:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem is used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem"`

	// Memory is used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// S3 is used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// QueueConfig selects the job queue and tunes its retry behavior.
type QueueConfig struct {
	// Type is memory or badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Options tunes attempts, leases and backoff
	Options queue.Options `mapstructure:"options"`

	// ReaperInterval is how often expired leases are returned to the queue
	ReaperInterval time.Duration `mapstructure:"reaper_interval" validate:"gt=0"`

	// Badger is used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// SessionsConfig selects the session store and tunes authentication.
type SessionsConfig struct {
	// Type is memory or badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// TokenTTL is the lifetime of a session token
	TokenTTL time.Duration `mapstructure:"token_ttl" validate:"gt=0"`

	// BcryptCost is the password hashing cost
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`

	// Memory is used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// Badger is used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// ThumbnailConfig configures thumbnail generation.
type ThumbnailConfig struct {
	// Pool sizes the worker pool
	Pool thumbnail.PoolConfig `mapstructure:"pool"`

	// JPEGQuality is used when the source image is a JPEG (1-100)
	JPEGQuality int `mapstructure:"jpeg_quality" validate:"min=1,max=100"`
}

// legacyEnv maps environment variables of earlier deployments onto keys.
var legacyEnv = map[string]string{
	"content.filesystem.path": "FOLDER_PATH",
	"api.port":                "PORT",
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if err := setupViper(v, configPath); err != nil {
		return nil, err
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variables and the config file location.
//
// Environment variables use the FILESMANAGER_ prefix with underscores for
// nesting, e.g. FILESMANAGER_LOGGING_LEVEL=DEBUG. Keys must be known to
// viper to be picked up from the environment, so every key of the default
// configuration is registered.
func setupViper(v *viper.Viper, configPath string) error {
	v.SetEnvPrefix("FILESMANAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range defaultKeys() {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	for key, env := range legacyEnv {
		prefixed := "FILESMANAGER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	return nil
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// An explicit path that does not exist surfaces as a PathError.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns $XDG_CONFIG_HOME/filesmanager, ~/.config/filesmanager,
// or "." when no home directory is known.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "filesmanager")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "filesmanager")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
