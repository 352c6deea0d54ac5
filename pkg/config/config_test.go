package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

content:
  type: "filesystem"
  filesystem:
    path: "` + filepath.Join(tmpDir, "blobs") + `"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.API.Port != 5000 {
		t.Errorf("Expected default API port 5000, got %d", cfg.API.Port)
	}
	if cfg.API.PageSize != 20 {
		t.Errorf("Expected default page size 20, got %d", cfg.API.PageSize)
	}
	if cfg.Thumbnail.Pool.Workers != 2 {
		t.Errorf("Expected 2 thumbnail workers, got %d", cfg.Thumbnail.Pool.Workers)
	}
	if cfg.Content.Filesystem["path"] != filepath.Join(tmpDir, "blobs") {
		t.Errorf("Expected content path from file, got %v", cfg.Content.Filesystem["path"])
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Content.Type != "filesystem" {
		t.Errorf("Expected default content type 'filesystem', got %q", cfg.Content.Type)
	}
	if cfg.Content.Filesystem["path"] != "/tmp/files_manager" {
		t.Errorf("Expected default content path, got %v", cfg.Content.Filesystem["path"])
	}
}

func TestLoad_NoConfigFileInDefaultDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults with an empty config dir, got: %v", err)
	}
	if cfg.Thumbnail.Pool.JobTimeout >= cfg.Queue.Options.LeaseDuration {
		t.Errorf("Expected job timeout %v below lease %v",
			cfg.Thumbnail.Pool.JobTimeout, cfg.Queue.Options.LeaseDuration)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[logging]
level = "WARN"
format = "json"

[queue]
type = "memory"

[queue.options]
max_attempts = 5
lease_duration = "2m"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Queue.Options.MaxAttempts != 5 {
		t.Errorf("Expected max_attempts 5, got %d", cfg.Queue.Options.MaxAttempts)
	}
	if cfg.Queue.Options.LeaseDuration != 2*time.Minute {
		t.Errorf("Expected lease_duration 2m, got %v", cfg.Queue.Options.LeaseDuration)
	}
	if cfg.Queue.ReaperInterval != time.Minute {
		t.Errorf("Expected reaper interval of half the lease, got %v", cfg.Queue.ReaperInterval)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Metadata.Type != "badger" {
		t.Errorf("Expected default metadata type 'badger', got %q", cfg.Metadata.Type)
	}
	if cfg.Queue.Type != "badger" || cfg.Sessions.Type != "badger" {
		t.Errorf("Expected badger queue and sessions, got %q and %q", cfg.Queue.Type, cfg.Sessions.Type)
	}
	if !cfg.Server.Metrics.Enabled || cfg.Server.Metrics.Port != 9090 {
		t.Errorf("Expected metrics enabled on 9090, got %+v", cfg.Server.Metrics)
	}
	if !cfg.GC.Enabled {
		t.Error("Expected gc enabled by default")
	}
	if cfg.Sessions.TokenTTL != 24*time.Hour {
		t.Errorf("Expected 24h token ttl, got %v", cfg.Sessions.TokenTTL)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg-test")

	if dir := GetConfigDir(); dir != "/etc/xdg-test/filesmanager" {
		t.Errorf("Expected XDG directory, got %q", dir)
	}
}

func TestConfigExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if ConfigExists() {
		t.Fatal("Expected no config in an empty directory")
	}
	if _, err := InitConfig(false); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if !ConfigExists() {
		t.Error("Expected config to exist after InitConfig")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("FILESMANAGER_LOGGING_LEVEL", "ERROR")
	t.Setenv("FILESMANAGER_THUMBNAIL_POOL_WORKERS", "6")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Thumbnail.Pool.Workers != 6 {
		t.Errorf("Expected 6 workers from env var, got %d", cfg.Thumbnail.Pool.Workers)
	}
}

func TestLoad_LegacyEnvironmentVariables(t *testing.T) {
	t.Setenv("FOLDER_PATH", "/srv/files")
	t.Setenv("PORT", "8080")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Content.Filesystem["path"] != "/srv/files" {
		t.Errorf("Expected FOLDER_PATH to set the content path, got %v", cfg.Content.Filesystem["path"])
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected PORT to set the API port, got %d", cfg.API.Port)
	}
}
