package ingest

import (
	"crypto/sha256"
	"sync"

	"github.com/rzbill/logtap/internal/store"
)

// fingerprint derives the dedup key for an event, scoped to its address.
//
// Console records are keyed on level+message+source with the timestamp
// excluded, so identical warnings repeated across re-renders collapse.
// Structured records are keyed on the exact serialized payload, which
// makes their dedup timestamp-sensitive when the payload embeds one; that
// asymmetry is deliberate and documented.
func fingerprint(tenant, origin, topic string, ev store.Event) [32]byte {
	h := sha256.New()
	for _, part := range []string{tenant, origin, topic} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	switch p := ev.Payload.(type) {
	case store.ConsoleRecord:
		h.Write([]byte{'c', 0})
		h.Write([]byte(p.Level))
		h.Write([]byte{0})
		h.Write([]byte(p.Message))
		h.Write([]byte{0})
		h.Write([]byte(p.Source))
	case store.StructuredRecord:
		h.Write([]byte{'s', 0})
		h.Write(p.Data)
	}
	var key [32]byte
	h.Sum(key[:0])
	return key
}

// dedupTable remembers fingerprints with their last-seen time. Entries
// older than the TTL are ignored on lookup and removed when the table
// grows past its cap, which bounds memory without a background sweeper.
type dedupTable struct {
	mu         sync.Mutex
	seen       map[[32]byte]int64
	ttlMs      int64
	maxEntries int
}

func newDedupTable(ttlMs int64, maxEntries int) *dedupTable {
	if ttlMs <= 0 {
		ttlMs = 5000
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &dedupTable{
		seen:       make(map[[32]byte]int64),
		ttlMs:      ttlMs,
		maxEntries: maxEntries,
	}
}

// observe records the fingerprint at nowMs and reports whether the event
// is fresh. A fingerprint seen within the TTL window is a duplicate and
// its timestamp is not refreshed, so a steady stream of duplicates still
// expires.
func (d *dedupTable) observe(key [32]byte, nowMs int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.seen[key]; ok && nowMs-last < d.ttlMs {
		return false
	}
	if len(d.seen) >= d.maxEntries {
		d.sweepLocked(nowMs)
	}
	d.seen[key] = nowMs
	return true
}

// sweepLocked removes entries strictly older than the TTL. Called with the
// lock held.
func (d *dedupTable) sweepLocked(nowMs int64) {
	for k, last := range d.seen {
		if nowMs-last >= d.ttlMs {
			delete(d.seen, k)
		}
	}
}

func (d *dedupTable) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
