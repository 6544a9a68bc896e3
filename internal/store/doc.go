// Package store implements the in-memory hierarchical log store.
//
// Events are addressed by (tenant, origin, topic). Each topic owns a
// bounded FIFO bucket: appends beyond capacity evict the oldest entries.
// The hierarchy is created lazily on first write and lives for the
// process lifetime; nothing is persisted.
//
// Locking is scoped to the narrowest level. The tenant/origin/topic maps
// take short read-mostly locks for lookup and creation; appends and reads
// of event data serialize only on the addressed bucket, so unrelated
// topics never contend.
package store
