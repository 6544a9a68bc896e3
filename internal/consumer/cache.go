package consumer

import (
	"sort"
	"sync"

	"github.com/rzbill/logtap/internal/store"
)

// addr is one cache bucket address.
type addr struct {
	tenant, origin, topic string
}

// cache mirrors the server's bucket discipline client-side: bounded FIFO
// per address, snapshot replaces, new events append.
type cache struct {
	mu       sync.RWMutex
	buckets  map[addr][]store.Event
	capacity int
}

func newCache(capacity int) *cache {
	return &cache{buckets: make(map[addr][]store.Event), capacity: capacity}
}

// replace installs a snapshot for the address, discarding whatever the
// cache held for it before.
func (c *cache) replace(a addr, events []store.Event) {
	cp := make([]store.Event, len(events))
	copy(cp, events)
	if excess := len(cp) - c.capacity; excess > 0 {
		cp = cp[excess:]
	}
	c.mu.Lock()
	c.buckets[a] = cp
	c.mu.Unlock()
}

// append adds new events to the address, trimming oldest-first.
func (c *cache) append(a addr, events []store.Event) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	b := append(c.buckets[a], events...)
	if excess := len(b) - c.capacity; excess > 0 {
		b = append(b[:0:0], b[excess:]...)
	}
	c.buckets[a] = b
	c.mu.Unlock()
}

// read returns up to limit most-recent matching events, oldest-first, and
// the pre-filter bucket size.
func (c *cache) read(a addr, limit int, filter string) ([]store.Event, int) {
	return c.readFunc(a, limit, func(ev store.Event) bool { return ev.MatchText(filter) })
}

// readFunc is read with a caller-supplied predicate.
func (c *cache) readFunc(a addr, limit int, keep func(store.Event) bool) ([]store.Event, int) {
	c.mu.RLock()
	b := c.buckets[a]
	matched := make([]store.Event, 0, len(b))
	for _, ev := range b {
		if keep == nil || keep(ev) {
			matched = append(matched, ev)
		}
	}
	total := len(b)
	c.mu.RUnlock()

	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, total
}

// origins lists the cached origins of a tenant, sorted.
func (c *cache) origins(tenant string) []string {
	c.mu.RLock()
	seen := map[string]struct{}{}
	for a := range c.buckets {
		if a.tenant == tenant {
			seen[a.origin] = struct{}{}
		}
	}
	c.mu.RUnlock()
	return sortedKeys(seen)
}

// topics lists the cached topics of an origin, sorted.
func (c *cache) topics(tenant, origin string) []string {
	c.mu.RLock()
	seen := map[string]struct{}{}
	for a := range c.buckets {
		if a.tenant == tenant && a.origin == origin {
			seen[a.topic] = struct{}{}
		}
	}
	c.mu.RUnlock()
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
