package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
)

func consoleEvent(level, message string) Event {
	return Event{Payload: ConsoleRecord{Level: level, Message: message}}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := New(Options{})
	in := []Event{
		consoleEvent("info", "first"),
		consoleEvent("warn", "second"),
		consoleEvent("error", "third"),
	}
	stored := s.Write("acme", "localhost:3000", "console", in)
	if len(stored) != 3 {
		t.Fatalf("stored %d events, want 3", len(stored))
	}
	for i, ev := range stored {
		if ev.ID == "" {
			t.Fatalf("event %d missing id", i)
		}
		if ev.Timestamp == 0 {
			t.Fatalf("event %d missing timestamp", i)
		}
	}

	got, total := s.Read("acme", "localhost:3000", "console", 10, "")
	if total != 3 || len(got) != 3 {
		t.Fatalf("read %d/%d, want 3/3", len(got), total)
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Payload.Text() != want {
			t.Fatalf("order broken at %d: %q", i, got[i].Payload.Text())
		}
	}
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	s := New(Options{Capacity: 3})
	for _, m := range []string{"a", "b", "c", "d"} {
		s.Write("t", "o", "console", []Event{consoleEvent("log", m)})
	}
	got, total := s.Read("t", "o", "console", 10, "")
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	for i, want := range []string{"b", "c", "d"} {
		if got[i].Payload.Text() != want {
			t.Fatalf("at %d got %q, want %q", i, got[i].Payload.Text(), want)
		}
	}
}

func TestCapacityInvariantUnderBatches(t *testing.T) {
	s := New(Options{Capacity: 5})
	batch := make([]Event, 7)
	for i := range batch {
		batch[i] = consoleEvent("log", fmt.Sprintf("m%d", i))
	}
	s.Write("t", "o", "console", batch)
	got, total := s.Read("t", "o", "console", 100, "")
	if total != 5 || len(got) != 5 {
		t.Fatalf("bucket exceeded capacity: %d/%d", len(got), total)
	}
	if got[0].Payload.Text() != "m2" || got[4].Payload.Text() != "m6" {
		t.Fatalf("wrong retained window: %q..%q", got[0].Payload.Text(), got[4].Payload.Text())
	}
}

func TestReadMissingAddressIsEmpty(t *testing.T) {
	s := New(Options{})
	if got, total := s.Read("nope", "o", "t", 10, ""); len(got) != 0 || total != 0 {
		t.Fatalf("missing tenant should be empty, got %d/%d", len(got), total)
	}
	s.Write("t", "o", "console", []Event{consoleEvent("log", "x")})
	if got, _ := s.Read("t", "o", "other-topic", 10, ""); len(got) != 0 {
		t.Fatalf("missing topic should be empty, got %d", len(got))
	}
}

func TestReadLimitReturnsMostRecent(t *testing.T) {
	s := New(Options{})
	for i := 0; i < 10; i++ {
		s.Write("t", "o", "console", []Event{consoleEvent("log", fmt.Sprintf("m%d", i))})
	}
	got, total := s.Read("t", "o", "console", 3, "")
	if total != 10 {
		t.Fatalf("total = %d, want 10", total)
	}
	for i, want := range []string{"m7", "m8", "m9"} {
		if got[i].Payload.Text() != want {
			t.Fatalf("at %d got %q, want %q", i, got[i].Payload.Text(), want)
		}
	}
}

func TestReadSubstringFilter(t *testing.T) {
	s := New(Options{})
	s.Write("t", "o", "console", []Event{
		consoleEvent("error", "database connection refused"),
		consoleEvent("info", "ready"),
		consoleEvent("error", "Database timeout"),
	})
	got, total := s.Read("t", "o", "console", 10, "DATABASE")
	if total != 3 {
		t.Fatalf("total should be pre-filter: %d", total)
	}
	if len(got) != 2 {
		t.Fatalf("filter matched %d, want 2", len(got))
	}
}

func TestStructuredPayloadFilterAndJSON(t *testing.T) {
	s := New(Options{})
	raw := json.RawMessage(`{"action":"checkout","cart":3}`)
	s.Write("t", "o", "metrics", []Event{{Payload: StructuredRecord{Data: raw}}})

	got, _ := s.Read("t", "o", "metrics", 10, "checkout")
	if len(got) != 1 {
		t.Fatalf("structured filter missed: %d", len(got))
	}

	b, err := json.Marshal(got[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Event
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sr, ok := back.Payload.(StructuredRecord)
	if !ok {
		t.Fatalf("payload variant lost: %T", back.Payload)
	}
	if string(sr.Data) != string(raw) {
		t.Fatalf("data mangled: %s", sr.Data)
	}
}

func TestEnumerations(t *testing.T) {
	s := New(Options{})
	s.Write("acme", "host-a", "console", []Event{consoleEvent("log", "1")})
	s.Write("acme", "host-a", "metrics", []Event{{Payload: StructuredRecord{Data: json.RawMessage(`1`)}}})
	s.Write("acme", "host-b", "console", []Event{consoleEvent("log", "2")})
	s.Write("beta", "host-c", "console", []Event{consoleEvent("log", "3")})

	tenants := s.Tenants()
	if len(tenants) != 2 || tenants[0].Name != "acme" || tenants[1].Name != "beta" {
		t.Fatalf("tenants: %+v", tenants)
	}
	if tenants[0].Origins != 2 || tenants[0].Events != 3 {
		t.Fatalf("acme summary: %+v", tenants[0])
	}

	origins := s.Origins("acme")
	if len(origins) != 2 || origins[0].Name != "host-a" || origins[0].Topics != 2 {
		t.Fatalf("origins: %+v", origins)
	}

	topics := s.Topics("acme", "host-a")
	if len(topics) != 2 || topics[0].Name != "console" || topics[1].Name != "metrics" {
		t.Fatalf("topics: %+v", topics)
	}
	if topics[0].Count != 1 {
		t.Fatalf("topic count: %+v", topics[0])
	}

	if s.TotalEvents() != 4 {
		t.Fatalf("total events: %d", s.TotalEvents())
	}
}

func TestConcurrentWritesDistinctAddresses(t *testing.T) {
	s := New(Options{Capacity: 100})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			topic := fmt.Sprintf("topic-%d", g)
			for i := 0; i < 50; i++ {
				s.Write("t", "o", topic, []Event{consoleEvent("log", fmt.Sprintf("m%d", i))})
			}
		}(g)
	}
	wg.Wait()
	for g := 0; g < 8; g++ {
		topic := fmt.Sprintf("topic-%d", g)
		got, _ := s.Read("t", "o", topic, 100, "")
		if len(got) != 50 {
			t.Fatalf("%s has %d events, want 50", topic, len(got))
		}
		for i, ev := range got {
			if want := fmt.Sprintf("m%d", i); ev.Payload.Text() != want {
				t.Fatalf("%s order broken at %d: %q", topic, i, ev.Payload.Text())
			}
		}
	}
}

func TestConcurrentWritesSameAddressKeepCapacity(t *testing.T) {
	s := New(Options{Capacity: 10})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Write("t", "o", "console", []Event{consoleEvent("log", "x")})
			}
		}()
	}
	wg.Wait()
	got, total := s.Read("t", "o", "console", 100, "")
	if total != 10 || len(got) != 10 {
		t.Fatalf("capacity violated: %d/%d", len(got), total)
	}
}
