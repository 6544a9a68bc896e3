package config

import (
	"os"
	"strconv"
)

// FromEnv overlays LOGTAP_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("LOGTAP_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	overlayInt("LOGTAP_BUCKET_CAPACITY", &cfg.BucketCapacity)
	overlayInt("LOGTAP_CACHE_CAPACITY", &cfg.CacheCapacity)
	overlayInt("LOGTAP_DEDUP_TTL_MS", &cfg.Dedup.TTLMs)
	overlayInt("LOGTAP_DEDUP_MAX_ENTRIES", &cfg.Dedup.MaxEntries)
	overlayInt("LOGTAP_RATELIMIT_LOOPBACK_REQUESTS", &cfg.RateLimit.Loopback.Requests)
	overlayInt("LOGTAP_RATELIMIT_LOOPBACK_WINDOW_MS", &cfg.RateLimit.Loopback.WindowMs)
	overlayInt("LOGTAP_RATELIMIT_REMOTE_REQUESTS", &cfg.RateLimit.Remote.Requests)
	overlayInt("LOGTAP_RATELIMIT_REMOTE_WINDOW_MS", &cfg.RateLimit.Remote.WindowMs)
	overlayInt("LOGTAP_KEEPALIVE_MS", &cfg.KeepaliveMs)
	overlayInt("LOGTAP_SUBSCRIBER_BUFFER", &cfg.SubscriberBuffer)
	overlayInt("LOGTAP_SEND_TIMEOUT_MS", &cfg.SendTimeoutMs)
	overlayInt("LOGTAP_DEFAULT_QUERY_LINES", &cfg.DefaultQueryLines)
	overlayInt("LOGTAP_MAX_QUERY_LINES", &cfg.MaxQueryLines)
	if v := os.Getenv("LOGTAP_ARCHIVE_DIR"); v != "" {
		cfg.ArchiveDir = v
	}
}

func overlayInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
