// Package runtime wires the store, ingestion gate, broadcast hub, and
// optional archive sink into a single-node relay instance. The runtime is
// constructed once at process start and handed by reference to the
// transports; nothing reaches it through globals.
package runtime
