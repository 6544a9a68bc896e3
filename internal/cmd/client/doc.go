// Package client holds the CLI commands that talk to a running relay:
// log queries, status, the MCP stdio surface, and archive inspection.
package client
