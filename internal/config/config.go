package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConsoleTopic is the reserved topic name for console-style leveled capture.
const ConsoleTopic = "console"

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// HTTPAddr is the listen address for the ingest/query/stream API.
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`

	// BucketCapacity bounds each (tenant, origin, topic) bucket.
	BucketCapacity int `json:"bucketCapacity" yaml:"bucketCapacity"`
	// CacheCapacity bounds the consumer-side mirror of each bucket.
	CacheCapacity int `json:"cacheCapacity" yaml:"cacheCapacity"`

	// Dedup controls the duplicate-suppression window in front of the store.
	Dedup DedupConfig `json:"dedup" yaml:"dedup"`
	// RateLimit holds the per-client submission policies.
	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	// KeepaliveMs is the interval between keepalive frames on the stream.
	KeepaliveMs int `json:"keepaliveMs" yaml:"keepaliveMs"`
	// SubscriberBuffer is the per-subscriber queue depth.
	SubscriberBuffer int `json:"subscriberBuffer" yaml:"subscriberBuffer"`
	// SendTimeoutMs bounds a single push to a subscriber before it is dropped.
	SendTimeoutMs int `json:"sendTimeoutMs" yaml:"sendTimeoutMs"`

	// DefaultQueryLines and MaxQueryLines clamp the range-query size.
	DefaultQueryLines int `json:"defaultQueryLines" yaml:"defaultQueryLines"`
	MaxQueryLines     int `json:"maxQueryLines" yaml:"maxQueryLines"`

	// ArchiveDir enables the on-disk archive sink when non-empty.
	ArchiveDir string `json:"archiveDir" yaml:"archiveDir"`
}

// DedupConfig bounds the fingerprint table.
type DedupConfig struct {
	TTLMs      int `json:"ttlMs" yaml:"ttlMs"`
	MaxEntries int `json:"maxEntries" yaml:"maxEntries"`
}

// RateLimitPolicy is a fixed-window request budget.
type RateLimitPolicy struct {
	Requests int `json:"requests" yaml:"requests"`
	WindowMs int `json:"windowMs" yaml:"windowMs"`
}

// RateLimitConfig separates loopback producers from remote ones.
type RateLimitConfig struct {
	Loopback RateLimitPolicy `json:"loopback" yaml:"loopback"`
	Remote   RateLimitPolicy `json:"remote" yaml:"remote"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:       ":8787",
		BucketCapacity: 500,
		CacheCapacity:  1000,
		Dedup: DedupConfig{
			TTLMs:      5000,
			MaxEntries: 1000,
		},
		RateLimit: RateLimitConfig{
			Loopback: RateLimitPolicy{Requests: 600, WindowMs: 60_000},
			Remote:   RateLimitPolicy{Requests: 60, WindowMs: 60_000},
		},
		KeepaliveMs:       30_000,
		SubscriberBuffer:  64,
		SendTimeoutMs:     1000,
		DefaultQueryLines: 20,
		MaxQueryLines:     100,
	}
}

// Load reads configuration from a JSON or YAML file by extension. If path is
// empty, it returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
