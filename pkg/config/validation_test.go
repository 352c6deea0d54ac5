package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}
}

func TestValidate_TagRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Logging.Level = "TRACE" }, "oneof"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "oneof"},
		{"content type", func(c *Config) { c.Content.Type = "ftp" }, "oneof"},
		{"metadata type", func(c *Config) { c.Metadata.Type = "postgres" }, "oneof"},
		{"api port", func(c *Config) { c.API.Port = 70000 }, "max"},
		{"bcrypt cost", func(c *Config) { c.Sessions.BcryptCost = 2 }, "min"},
		{"jpeg quality", func(c *Config) { c.Thumbnail.JPEGQuality = 101 }, "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected %q in error, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_JobTimeoutWithinLease(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Thumbnail.Pool.JobTimeout = 2 * time.Minute
	cfg.Queue.Options.LeaseDuration = time.Minute

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error when job_timeout exceeds the lease")
	}
	if !strings.Contains(err.Error(), "job_timeout") {
		t.Errorf("Expected job_timeout in error, got: %v", err)
	}
}

func TestValidate_S3RequiresBucket(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Content.Type = "s3"

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "content.s3.bucket") {
		t.Fatalf("Expected missing bucket error, got: %v", err)
	}

	cfg.Content.S3["bucket"] = "files"
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid s3 config, got: %v", err)
	}
}

func TestValidate_BadgerPath(t *testing.T) {
	cfg := GetDefaultConfig()
	delete(cfg.Queue.Badger, "db_path")

	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "queue.badger.db_path") {
		t.Fatalf("Expected missing db_path error, got: %v", err)
	}

	cfg.Queue.Badger["in_memory"] = true
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected in-memory badger to need no path, got: %v", err)
	}
}

func TestValidate_ShutdownTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.ShutdownTimeout = -time.Second

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for negative shutdown timeout")
	}
}
