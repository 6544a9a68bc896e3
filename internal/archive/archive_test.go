package archive

import (
	"fmt"
	"testing"

	"github.com/rzbill/logtap/internal/store"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestArchiveRoundTrip(t *testing.T) {
	s := newTestSink(t)
	st := store.New(store.Options{})

	var batch []store.Event
	for i := 0; i < 5; i++ {
		batch = append(batch, store.Event{
			Payload: store.ConsoleRecord{Level: "info", Message: fmt.Sprintf("m%d", i)},
		})
	}
	stored := st.Write("acme", "host", "console", batch)
	s.Archive("acme", "host", map[string][]store.Event{"console": stored})

	got, err := s.ReadTopic("acme", "host", "console", 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("archived %d events, want 5", len(got))
	}
	for i, ev := range got {
		if want := fmt.Sprintf("m%d", i); ev.Payload.Text() != want {
			t.Fatalf("order broken at %d: %q", i, ev.Payload.Text())
		}
	}
}

func TestReadTopicLimitAndIsolation(t *testing.T) {
	s := newTestSink(t)
	st := store.New(store.Options{})

	a := st.Write("t", "o", "alpha", []store.Event{
		{Payload: store.ConsoleRecord{Level: "log", Message: "a1"}},
		{Payload: store.ConsoleRecord{Level: "log", Message: "a2"}},
	})
	b := st.Write("t", "o", "beta", []store.Event{
		{Payload: store.ConsoleRecord{Level: "log", Message: "b1"}},
	})
	s.Archive("t", "o", map[string][]store.Event{"alpha": a, "beta": b})

	got, err := s.ReadTopic("t", "o", "alpha", 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].Payload.Text() != "a1" {
		t.Fatalf("limit read wrong: %+v", got)
	}
	if got, _ := s.ReadTopic("t", "o", "missing", 0); len(got) != 0 {
		t.Fatalf("missing topic not empty: %d", len(got))
	}
}
