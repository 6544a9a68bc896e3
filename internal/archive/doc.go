// Package archive mirrors accepted log events into an on-disk Pebble
// keyspace for post-mortem inspection.
//
// The archive is a side sink: the live store stays in-memory and bounded,
// and no read path of the core depends on archived data. Archiving is
// disabled unless a directory is configured.
package archive
