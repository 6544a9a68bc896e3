// Package httpserver exposes the relay over HTTP: ingestion, status,
// range queries, the SSE stream, and health. Handlers live in the
// controllers subpackage; this package owns the listener lifecycle.
package httpserver
