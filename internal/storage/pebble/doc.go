// Package pebblestore wraps a Pebble database with the small helper
// surface the archive sink needs: batched writes, point reads, and
// bounded iteration. The wrapper commits without forced WAL syncs; the
// archive is a best-effort mirror, not a durability contract.
package pebblestore
