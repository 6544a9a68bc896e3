package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.BucketCapacity != 500 {
		t.Fatalf("bucket capacity default: %d", cfg.BucketCapacity)
	}
	if cfg.CacheCapacity != 1000 {
		t.Fatalf("cache capacity default: %d", cfg.CacheCapacity)
	}
	if cfg.Dedup.TTLMs != 5000 || cfg.Dedup.MaxEntries != 1000 {
		t.Fatalf("dedup defaults: %+v", cfg.Dedup)
	}
	if cfg.RateLimit.Loopback.Requests <= cfg.RateLimit.Remote.Requests {
		t.Fatal("loopback policy should be more generous than remote")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logtap.json")
	body := `{"httpAddr": ":9999", "bucketCapacity": 42}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.BucketCapacity != 42 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	// Untouched keys keep defaults.
	if cfg.CacheCapacity != 1000 {
		t.Fatalf("default lost on partial file: %d", cfg.CacheCapacity)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logtap.yaml")
	body := "httpAddr: \":7070\"\nkeepaliveMs: 1000\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" || cfg.KeepaliveMs != 1000 {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromEnvOverlay(t *testing.T) {
	t.Setenv("LOGTAP_HTTP_ADDR", ":1234")
	t.Setenv("LOGTAP_BUCKET_CAPACITY", "7")
	t.Setenv("LOGTAP_DEDUP_TTL_MS", "not-a-number")
	cfg := Default()
	FromEnv(&cfg)
	if cfg.HTTPAddr != ":1234" {
		t.Fatalf("env addr not applied: %s", cfg.HTTPAddr)
	}
	if cfg.BucketCapacity != 7 {
		t.Fatalf("env capacity not applied: %d", cfg.BucketCapacity)
	}
	if cfg.Dedup.TTLMs != 5000 {
		t.Fatalf("invalid env value should be ignored: %d", cfg.Dedup.TTLMs)
	}
}
