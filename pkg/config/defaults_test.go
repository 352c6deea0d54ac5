package config

import (
	"testing"
	"time"

	"github.com/marmos91/filesmanager/pkg/gc"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Stores(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	checks := map[string]any{
		"metadata.badger.db_path": cfg.Metadata.Badger["db_path"],
		"content.filesystem.path": cfg.Content.Filesystem["path"],
		"queue.badger.db_path":    cfg.Queue.Badger["db_path"],
		"sessions.badger.db_path": cfg.Sessions.Badger["db_path"],
	}
	want := map[string]any{
		"metadata.badger.db_path": "/tmp/files_manager/metadata",
		"content.filesystem.path": "/tmp/files_manager",
		"queue.badger.db_path":    "/tmp/files_manager/queue",
		"sessions.badger.db_path": "/tmp/files_manager/sessions",
	}
	for key, got := range checks {
		if got != want[key] {
			t.Errorf("%s: expected %v, got %v", key, want[key], got)
		}
	}

	if cfg.Content.S3 == nil || cfg.Metadata.Memory == nil || cfg.Sessions.Memory == nil {
		t.Error("Expected store maps to be initialized")
	}
}

func TestApplyDefaults_QueueAndThumbnail(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Queue.Options.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", cfg.Queue.Options.MaxAttempts)
	}
	if cfg.Queue.ReaperInterval != 30*time.Second {
		t.Errorf("Expected reaper interval 30s, got %v", cfg.Queue.ReaperInterval)
	}
	if cfg.Thumbnail.JPEGQuality != 85 {
		t.Errorf("Expected JPEG quality 85, got %d", cfg.Thumbnail.JPEGQuality)
	}
	if cfg.Thumbnail.Pool.JobTimeout != 45*time.Second {
		t.Errorf("Expected job timeout 45s, got %v", cfg.Thumbnail.Pool.JobTimeout)
	}
	if cfg.Thumbnail.Pool.JobTimeout >= cfg.Queue.Options.LeaseDuration {
		t.Errorf("Expected job timeout below lease %v, got %v",
			cfg.Queue.Options.LeaseDuration, cfg.Thumbnail.Pool.JobTimeout)
	}
}

func TestApplyDefaults_JobTimeoutFollowsLease(t *testing.T) {
	cfg := &Config{}
	cfg.Queue.Options.LeaseDuration = 20 * time.Second
	ApplyDefaults(cfg)

	if cfg.Thumbnail.Pool.JobTimeout != 15*time.Second {
		t.Errorf("Expected job timeout 15s, got %v", cfg.Thumbnail.Pool.JobTimeout)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected defaults derived from a short lease to validate, got: %v", err)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{ShutdownTimeout: 5 * time.Second},
		Content: ContentConfig{Type: "s3", Filesystem: map[string]any{"path": "/data"}},
		GC:      gc.Config{Enabled: false, Interval: time.Hour},
	}
	cfg.API.Port = 7000
	cfg.Sessions.BcryptCost = 12
	ApplyDefaults(cfg)

	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout preserved, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Content.Type != "s3" {
		t.Errorf("Expected content type preserved, got %q", cfg.Content.Type)
	}
	if cfg.Content.Filesystem["path"] != "/data" {
		t.Errorf("Expected filesystem path preserved, got %v", cfg.Content.Filesystem["path"])
	}
	if cfg.API.Port != 7000 {
		t.Errorf("Expected API port preserved, got %d", cfg.API.Port)
	}
	if cfg.Sessions.BcryptCost != 12 {
		t.Errorf("Expected bcrypt cost preserved, got %d", cfg.Sessions.BcryptCost)
	}
	if cfg.GC.Enabled {
		t.Error("Expected gc to stay disabled")
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Fatalf("Default config should be valid, got: %v", err)
	}
}
