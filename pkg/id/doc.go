// Package id generates compact, time-ordered event identifiers.
//
// An ID is 16 bytes: the upper 8 carry the creation time in Unix
// milliseconds, the lower 8 a per-process sequence. IDs compare
// lexicographically in creation order, which lets callers sort and
// deduplicate events by raw bytes.
package id
