package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != "30s" {
		t.Errorf("shutdown_timeout = %q, want 30s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.URL != "" {
		t.Errorf("database url = %q, want empty (in-memory)", cfg.Database.URL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 3000 || cfg.Logging.Level != "info" {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notevault.yaml")
	content := []byte(`
server:
  port: 8080
database:
  url: mysql://root@tcp(localhost:3306)/notes
auth:
  bcrypt_cost: 10
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.URL != "mysql://root@tcp(localhost:3306)/notes" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("bcrypt_cost = %d, want 10", cfg.Auth.BcryptCost)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, want default", cfg.Server.Host)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want default", cfg.Logging.Level)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a map"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestRenderRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 9999

	out, err := cfg.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	path := filepath.Join(t.TempDir(), "rendered.yaml")
	if err := os.WriteFile(path, out, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999 after round trip", loaded.Server.Port)
	}
}
