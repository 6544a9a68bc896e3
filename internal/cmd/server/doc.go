// Package serverrun starts the relay server process: runtime wiring, the
// keepalive loop, and the HTTP listener, with graceful shutdown on signal.
package serverrun
