package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	cfgpkg "github.com/rzbill/logtap/internal/config"
	"github.com/rzbill/logtap/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New(store.Options{})
	return New(st, cfgpkg.Default()), st
}

func consoleEvents(msgs ...string) []store.Event {
	out := make([]store.Event, len(msgs))
	for i, m := range msgs {
		out[i] = store.Event{Payload: store.ConsoleRecord{Level: "info", Message: m}}
	}
	return out
}

func TestQueryAutoSelectsSingleOriginAndConsoleTopic(t *testing.T) {
	svc, st := newTestService(t)
	st.Write("app", "host-1", "console", consoleEvents("hello"))

	res, err := svc.Query(Params{Tenant: "app"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Origin != "host-1" || !res.AutoOrigin {
		t.Fatalf("origin not auto-selected: %+v", res)
	}
	if res.Topic != "console" || !res.AutoTopic {
		t.Fatalf("topic not auto-selected: %+v", res)
	}
	if len(res.Events) != 1 || res.Total != 1 {
		t.Fatalf("events = %d total = %d", len(res.Events), res.Total)
	}
}

func TestQueryAmbiguousOrigin(t *testing.T) {
	svc, st := newTestService(t)
	st.Write("app", "host-1", "console", consoleEvents("a"))
	st.Write("app", "host-2", "console", consoleEvents("b"))

	_, err := svc.Query(Params{Tenant: "app"})
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("want AmbiguousError, got %v", err)
	}
	if amb.Component != "origin" || len(amb.Candidates) != 2 {
		t.Fatalf("ambiguous result: %+v", amb)
	}

	res, err := svc.Query(Params{Tenant: "app", Origin: "host-2"})
	if err != nil {
		t.Fatalf("explicit origin: %v", err)
	}
	if res.Origin != "host-2" || res.AutoOrigin {
		t.Fatalf("explicit selection marked auto: %+v", res)
	}
}

func TestQueryNotFoundListsCandidates(t *testing.T) {
	svc, st := newTestService(t)
	st.Write("app", "host-1", "console", consoleEvents("a"))

	_, err := svc.Query(Params{Tenant: "app", Origin: "nope"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
	if nf.Requested != "nope" || len(nf.Candidates) != 1 {
		t.Fatalf("not found result: %+v", nf)
	}
}

func TestQueryUnknownTenantIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Query(Params{Tenant: "ghost"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestQueryClampsLines(t *testing.T) {
	svc, st := newTestService(t)
	msgs := make([]string, 150)
	for i := range msgs {
		msgs[i] = fmt.Sprintf("m%d", i)
	}
	st.Write("app", "h", "console", consoleEvents(msgs...))

	res, err := svc.Query(Params{Tenant: "app"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Events) != svc.cfg.DefaultQueryLines {
		t.Fatalf("default lines = %d", len(res.Events))
	}
	res, _ = svc.Query(Params{Tenant: "app", Lines: 1000})
	if len(res.Events) != svc.cfg.MaxQueryLines {
		t.Fatalf("max lines = %d", len(res.Events))
	}
	if res.Events[len(res.Events)-1].Payload.Text() != "m149" {
		t.Fatal("most-recent window not returned")
	}
}

func TestQuerySubstringFilter(t *testing.T) {
	svc, st := newTestService(t)
	st.Write("app", "h", "console", consoleEvents("connect ok", "ERROR timeout", "retry"))

	res, err := svc.Query(Params{Tenant: "app", Filter: "error"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Events) != 1 || res.Total != 3 {
		t.Fatalf("filtered = %d total = %d", len(res.Events), res.Total)
	}
}

func TestQueryExpression(t *testing.T) {
	svc, st := newTestService(t)
	st.Write("app", "h", "console", []store.Event{
		{Payload: store.ConsoleRecord{Level: "info", Message: "fine"}},
		{Payload: store.ConsoleRecord{Level: "error", Message: "boom"}},
	})

	res, err := svc.Query(Params{Tenant: "app", Expr: `level == "error"`})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].Payload.Text() != "boom" {
		t.Fatalf("expr filter wrong: %+v", res.Events)
	}

	if _, err := svc.Query(Params{Tenant: "app", Expr: `level ==`}); err == nil {
		t.Fatal("invalid expression accepted")
	}
}

func TestQueryExpressionOverStructuredPayload(t *testing.T) {
	svc, st := newTestService(t)
	st.Write("app", "h", "metrics", []store.Event{
		{Payload: store.StructuredRecord{Data: json.RawMessage(`{"latency":12}`)}},
		{Payload: store.StructuredRecord{Data: json.RawMessage(`{"latency":900}`)}},
	})

	res, err := svc.Query(Params{Tenant: "app", Topic: "metrics", Expr: `json.latency > 100`})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Events) != 1 {
		t.Fatalf("structured expr matched %d", len(res.Events))
	}
}
