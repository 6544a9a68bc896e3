package store

import (
	"sort"
	"sync"
	"time"

	"github.com/rzbill/logtap/pkg/id"
)

// DefaultCapacity is the per-bucket event cap used when Options leaves it zero.
const DefaultCapacity = 500

// Options configures a Store.
type Options struct {
	// Capacity bounds each topic bucket. Zero means DefaultCapacity.
	Capacity int
}

// Store is the root of the tenant → origin → topic hierarchy. It is
// constructed once at process start and shared by reference.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*tenantEntry

	capacity int
	ids      *id.Generator

	// nowMs is swappable in tests.
	nowMs func() int64
}

type tenantEntry struct {
	mu           sync.RWMutex
	origins      map[string]*originEntry
	connectedAt  int64
	lastActivity int64
}

type originEntry struct {
	mu           sync.RWMutex
	topics       map[string]*bucket
	connectedAt  int64
	lastActivity int64
}

// bucket is a bounded FIFO sequence of events for one address.
type bucket struct {
	mu     sync.Mutex
	events []Event
}

// TopicInfo summarizes one topic bucket for enumeration.
type TopicInfo struct {
	Name         string `json:"name"`
	Count        int    `json:"count"`
	LastActivity int64  `json:"lastActivityMs"`
}

// OriginInfo summarizes one origin for enumeration.
type OriginInfo struct {
	Name         string `json:"name"`
	Topics       int    `json:"topics"`
	Events       int    `json:"events"`
	ConnectedAt  int64  `json:"connectedAtMs"`
	LastActivity int64  `json:"lastActivityMs"`
}

// TenantInfo summarizes one tenant for enumeration.
type TenantInfo struct {
	Name         string `json:"name"`
	Origins      int    `json:"origins"`
	Events       int    `json:"events"`
	ConnectedAt  int64  `json:"connectedAtMs"`
	LastActivity int64  `json:"lastActivityMs"`
}

// New creates an empty store.
func New(opts Options) *Store {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		tenants:  make(map[string]*tenantEntry),
		capacity: capacity,
		ids:      id.NewGenerator(),
		nowMs:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Capacity returns the per-bucket cap.
func (s *Store) Capacity() int { return s.capacity }

// Write appends events to the addressed bucket in order, creating the
// tenant/origin/topic ancestors as needed, then trims the bucket to
// capacity (oldest first). It returns the stored copies with assigned IDs.
// Validation happens upstream; Write itself cannot partially fail.
func (s *Store) Write(tenant, origin, topic string, events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	now := s.nowMs()
	b := s.bucketFor(tenant, origin, topic, now)

	stored := make([]Event, len(events))
	for i, ev := range events {
		ev.ID = s.ids.Next().String()
		if ev.Timestamp == 0 {
			ev.Timestamp = now
		}
		stored[i] = ev
	}

	b.mu.Lock()
	b.events = append(b.events, stored...)
	if excess := len(b.events) - s.capacity; excess > 0 {
		b.events = append(b.events[:0:0], b.events[excess:]...)
	}
	b.mu.Unlock()
	return stored
}

// Read returns up to limit most-recent events for the address, oldest-first
// among the returned slice, after applying an optional case-insensitive
// substring filter. The second return is the pre-filter bucket size. A
// missing tenant, origin, or topic yields an empty result, not an error.
func (s *Store) Read(tenant, origin, topic string, limit int, filter string) ([]Event, int) {
	return s.ReadFunc(tenant, origin, topic, limit, func(ev Event) bool {
		return ev.MatchText(filter)
	})
}

// ReadFunc is Read with a caller-supplied predicate. A nil predicate keeps
// every event.
func (s *Store) ReadFunc(tenant, origin, topic string, limit int, keep func(Event) bool) ([]Event, int) {
	b := s.lookupBucket(tenant, origin, topic)
	if b == nil {
		return nil, 0
	}
	b.mu.Lock()
	total := len(b.events)
	matched := make([]Event, 0, total)
	for _, ev := range b.events {
		if keep == nil || keep(ev) {
			matched = append(matched, ev)
		}
	}
	b.mu.Unlock()

	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	out := make([]Event, len(matched))
	copy(out, matched)
	return out, total
}

// Topics enumerates the topics of an origin, sorted by name.
func (s *Store) Topics(tenant, origin string) []TopicInfo {
	s.mu.RLock()
	te := s.tenants[tenant]
	s.mu.RUnlock()
	if te == nil {
		return nil
	}
	te.mu.RLock()
	oe := te.origins[origin]
	te.mu.RUnlock()
	if oe == nil {
		return nil
	}

	oe.mu.RLock()
	infos := make([]TopicInfo, 0, len(oe.topics))
	for name, b := range oe.topics {
		b.mu.Lock()
		count := len(b.events)
		last := int64(0)
		if count > 0 {
			last = b.events[count-1].Timestamp
		}
		b.mu.Unlock()
		infos = append(infos, TopicInfo{Name: name, Count: count, LastActivity: last})
	}
	oe.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Origins enumerates the origins of a tenant, sorted by name.
func (s *Store) Origins(tenant string) []OriginInfo {
	s.mu.RLock()
	te := s.tenants[tenant]
	s.mu.RUnlock()
	if te == nil {
		return nil
	}

	te.mu.RLock()
	names := make([]string, 0, len(te.origins))
	for name := range te.origins {
		names = append(names, name)
	}
	te.mu.RUnlock()
	sort.Strings(names)

	infos := make([]OriginInfo, 0, len(names))
	for _, name := range names {
		te.mu.RLock()
		oe := te.origins[name]
		te.mu.RUnlock()
		if oe == nil {
			continue
		}
		events := 0
		oe.mu.RLock()
		topics := len(oe.topics)
		for _, b := range oe.topics {
			b.mu.Lock()
			events += len(b.events)
			b.mu.Unlock()
		}
		connectedAt := oe.connectedAt
		lastActivity := oe.lastActivity
		oe.mu.RUnlock()
		infos = append(infos, OriginInfo{
			Name:         name,
			Topics:       topics,
			Events:       events,
			ConnectedAt:  connectedAt,
			LastActivity: lastActivity,
		})
	}
	return infos
}

// Tenants enumerates all tenants, sorted by name.
func (s *Store) Tenants() []TenantInfo {
	s.mu.RLock()
	names := make([]string, 0, len(s.tenants))
	for name := range s.tenants {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	infos := make([]TenantInfo, 0, len(names))
	for _, name := range names {
		s.mu.RLock()
		te := s.tenants[name]
		s.mu.RUnlock()
		if te == nil {
			continue
		}
		events := 0
		origins := 0
		for _, oi := range s.Origins(name) {
			origins++
			events += oi.Events
		}
		te.mu.RLock()
		connectedAt := te.connectedAt
		lastActivity := te.lastActivity
		te.mu.RUnlock()
		infos = append(infos, TenantInfo{
			Name:         name,
			Origins:      origins,
			Events:       events,
			ConnectedAt:  connectedAt,
			LastActivity: lastActivity,
		})
	}
	return infos
}

// TotalEvents counts stored events across all addresses.
func (s *Store) TotalEvents() int {
	total := 0
	for _, ti := range s.Tenants() {
		total += ti.Events
	}
	return total
}

// bucketFor returns the bucket for the address, creating ancestors lazily
// and refreshing activity timestamps along the path.
func (s *Store) bucketFor(tenant, origin, topic string, now int64) *bucket {
	s.mu.RLock()
	te := s.tenants[tenant]
	s.mu.RUnlock()
	if te == nil {
		s.mu.Lock()
		te = s.tenants[tenant]
		if te == nil {
			te = &tenantEntry{origins: make(map[string]*originEntry), connectedAt: now}
			s.tenants[tenant] = te
		}
		s.mu.Unlock()
	}

	te.mu.RLock()
	oe := te.origins[origin]
	te.mu.RUnlock()
	if oe == nil {
		te.mu.Lock()
		oe = te.origins[origin]
		if oe == nil {
			oe = &originEntry{topics: make(map[string]*bucket), connectedAt: now}
			te.origins[origin] = oe
		}
		te.mu.Unlock()
	}

	oe.mu.RLock()
	b := oe.topics[topic]
	oe.mu.RUnlock()
	if b == nil {
		oe.mu.Lock()
		b = oe.topics[topic]
		if b == nil {
			b = &bucket{}
			oe.topics[topic] = b
		}
		oe.mu.Unlock()
	}

	te.mu.Lock()
	te.lastActivity = now
	te.mu.Unlock()
	oe.mu.Lock()
	oe.lastActivity = now
	oe.mu.Unlock()
	return b
}

// lookupBucket resolves an address without creating anything.
func (s *Store) lookupBucket(tenant, origin, topic string) *bucket {
	s.mu.RLock()
	te := s.tenants[tenant]
	s.mu.RUnlock()
	if te == nil {
		return nil
	}
	te.mu.RLock()
	oe := te.origins[origin]
	te.mu.RUnlock()
	if oe == nil {
		return nil
	}
	oe.mu.RLock()
	b := oe.topics[topic]
	oe.mu.RUnlock()
	return b
}
