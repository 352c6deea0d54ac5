package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitConfig_Success(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config file was not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %o", info.Mode().Perm())
	}
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}

	_, err := InitConfig(false)
	if err == nil {
		t.Fatal("Expected error when config already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}
}

func TestInitConfig_ForceOverwrite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("logging:\n  level: ERROR\n"), 0600); err != nil {
		t.Fatalf("Failed to modify config: %v", err)
	}

	if _, err := InitConfig(true); err != nil {
		t.Fatalf("InitConfig with force failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	if !strings.Contains(string(data), "# Files Manager Configuration File") {
		t.Error("Expected config to be regenerated")
	}
}

func TestInitConfigToPath_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file was not created: %v", err)
	}
}

func TestGenerateYAMLWithComments(t *testing.T) {
	out, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		t.Fatalf("generateYAMLWithComments failed: %v", err)
	}

	if !strings.HasPrefix(out, "# Files Manager Configuration File") {
		t.Error("Expected header at the top of the file")
	}

	for _, section := range []string{"logging:", "server:", "api:", "metadata:", "content:", "queue:", "sessions:", "thumbnail:", "gc:"} {
		if !strings.Contains(out, section) {
			t.Errorf("Expected section %q in generated config", section)
		}
	}

	// Durations are written in their readable form.
	if !strings.Contains(out, "token_ttl: 24h0m0s") {
		t.Error("Expected token_ttl as a duration string")
	}
	if !strings.Contains(out, "# Thumbnail job queue.") {
		t.Error("Expected section comments")
	}

	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}
	if _, ok := parsed["content"].(map[string]any)["s3"]; !ok {
		t.Error("Expected content.s3 in generated config")
	}
}

func TestGeneratedConfigIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Generated config failed to load: %v", err)
	}

	def := GetDefaultConfig()
	if cfg.Queue.Options != def.Queue.Options {
		t.Errorf("Queue options changed on round trip: %+v vs %+v", cfg.Queue.Options, def.Queue.Options)
	}
	if cfg.Thumbnail.Pool != def.Thumbnail.Pool {
		t.Errorf("Pool config changed on round trip: %+v vs %+v", cfg.Thumbnail.Pool, def.Thumbnail.Pool)
	}
	if !cfg.Server.Metrics.Enabled {
		t.Error("Expected metrics enabled in generated config")
	}
}

func TestDefaultKeys(t *testing.T) {
	keys := defaultKeys()

	want := map[string]bool{
		"logging.level":                      false,
		"api.port":                           false,
		"content.filesystem.path":            false,
		"queue.options.lease_duration":       false,
		"api.rate_limit.requests_per_second": false,
	}
	for _, k := range keys {
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("Expected %q among default keys", k)
		}
	}
}
