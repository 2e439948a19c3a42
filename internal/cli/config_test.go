package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strategy != "backtracking" {
		t.Errorf("strategy = %q", cfg.Strategy)
	}
	if cfg.TTL.value() != 24*time.Hour {
		t.Errorf("ttl = %s", cfg.TTL.value())
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("backend = %q", cfg.Cache.Backend)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
strategy = "greedy"
python = "3.11"
ttl = "2h"

[cache]
backend = "redis"
addr = "localhost:6379"
db = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strategy != "greedy" || cfg.Python != "3.11" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TTL.value() != 2*time.Hour {
		t.Errorf("ttl = %s", cfg.TTL.value())
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.Addr != "localhost:6379" || cfg.Cache.DB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("strategy = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestApplyFlagsOverridesConfig(t *testing.T) {
	cfg := defaultConfig()
	opts := &resolveOptions{strategy: "greedy", python: "3.10", ttl: "1h"}

	if err := applyFlags(cfg, opts); err != nil {
		t.Fatal(err)
	}
	if cfg.Strategy != "greedy" || cfg.Python != "3.10" || cfg.TTL.value() != time.Hour {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestApplyFlagsRejectsBadTTL(t *testing.T) {
	if err := applyFlags(defaultConfig(), &resolveOptions{ttl: "soon"}); err == nil {
		t.Fatal("expected error for invalid ttl")
	}
}
