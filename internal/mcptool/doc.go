// Package mcptool exposes the consumer's read contract as an MCP stdio
// server so AI tools can query logs on demand.
package mcptool
