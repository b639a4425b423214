package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  addr: ":9090"
database:
  path: "data/talentflow.db"
seed:
  jobs: 10
  candidates: 100
faults:
  error_rate: 0.2
  min_delay: "1ms"
  max_delay: "5ms"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Database.Path != "data/talentflow.db" {
		t.Fatalf("unexpected db path %s", cfg.Database.Path)
	}
	if cfg.Seed.Jobs != 10 || cfg.Seed.Candidates != 100 {
		t.Fatalf("unexpected seed config %+v", cfg.Seed)
	}
	if cfg.Faults.ErrorRate != 0.2 || cfg.Faults.MinDelay != "1ms" {
		t.Fatalf("unexpected faults config %+v", cfg.Faults)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Server.Addr != "" || cfg.Database.Path != "" {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}
