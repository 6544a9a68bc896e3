package mcptool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rzbill/logtap/internal/consumer"
	"github.com/rzbill/logtap/internal/store"
)

// newToolSession wires the MCP server to an in-memory transport, backed by
// a consumer pointed at a fake relay serving only point queries.
func newToolSession(t *testing.T, logs http.HandlerFunc) *mcpsdk.ClientSession {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/logs", logs)
	mux.HandleFunc("/v1/stream", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	relay := httptest.NewServer(mux)
	t.Cleanup(relay.Close)

	srv := New(consumer.New(consumer.Options{BaseURL: relay.URL}), "test", nil)

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	ctx := context.Background()
	serverSession, err := srv.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = clientSession.Close() })
	return clientSession
}

func textOf(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestGetLogsTool(t *testing.T) {
	session := newToolSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tenant": "app", "origin": "host", "topic": "console",
			"events": []store.Event{{Timestamp: 1700000000000, Payload: store.ConsoleRecord{Level: "warn", Message: "low disk"}}},
			"total":  1,
		})
	})

	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      "get_logs",
		Arguments: map[string]any{"tenant": "app"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", textOf(t, res))
	}
	out := textOf(t, res)
	if !strings.Contains(out, "low disk") || !strings.Contains(out, "WARN") {
		t.Fatalf("output missing event: %s", out)
	}
}

func TestGetLogsToolDisambiguation(t *testing.T) {
	session := newToolSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"component": "origin", "candidates": []string{"h1", "h2"},
		})
	})

	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      "get_logs",
		Arguments: map[string]any{"tenant": "app"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError {
		t.Fatal("ambiguous query did not error")
	}
	out := textOf(t, res)
	if !strings.Contains(out, "h1") || !strings.Contains(out, "h2") {
		t.Fatalf("candidates missing: %s", out)
	}
}

func TestGetLogsToolRequiresTenant(t *testing.T) {
	session := newToolSession(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("point query should not run without a tenant")
	})
	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      "get_logs",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError {
		t.Fatal("missing tenant accepted")
	}
}
