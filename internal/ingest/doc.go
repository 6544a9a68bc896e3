// Package ingest is the validation, deduplication, and rate-limiting gate
// in front of the log store.
//
// A submission is an atomic validate-then-apply unit: every producer-facing
// error is decided and returned before any store mutation, and the hub is
// notified with exactly the subset of events that were stored. Duplicate
// suppression and rate limiting keep bounded in-memory tables that are
// swept opportunistically on write.
package ingest
