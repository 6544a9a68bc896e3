package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rzbill/logtap/internal/store"
)

func newFakeAPI(t *testing.T, logs http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/logs", logs)
	mux.HandleFunc("/v1/stream", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLogsCommandPrintsEvents(t *testing.T) {
	srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tenant"); got != "app" {
			t.Errorf("tenant param = %q", got)
		}
		if got := r.URL.Query().Get("filter"); got != "boom" {
			t.Errorf("filter param = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tenant": "app", "origin": "host", "topic": "console",
			"events": []store.Event{{Timestamp: 1700000000000, Payload: store.ConsoleRecord{Level: "error", Message: "boom"}}},
			"total":  4,
		})
	})

	cmd := NewLogsCommand(func() string { return srv.URL })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--tenant", "app", "--filter", "boom"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "boom") || !strings.Contains(out.String(), "1 of 4") {
		t.Fatalf("output: %s", out.String())
	}
}

func TestLogsCommandRequiresTenant(t *testing.T) {
	cmd := NewLogsCommand(func() string { return "http://127.0.0.1:0" })
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("missing tenant accepted")
	}
}
