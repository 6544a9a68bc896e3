package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rzbill/logtap/internal/hub"
	"github.com/rzbill/logtap/internal/query"
	"github.com/rzbill/logtap/internal/runtime"
	"github.com/rzbill/logtap/internal/store"
)

// StreamController handles the SSE push channel.
type StreamController struct {
	rt *runtime.Runtime
}

// NewStreamController creates a new stream controller.
func NewStreamController(rt *runtime.Runtime) *StreamController {
	return &StreamController{rt: rt}
}

// RegisterRoutes registers the stream route with the given mux.
func (c *StreamController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/stream", c.handleStream)
}

// sseSink formats hub frames as Server-Sent Events.
type sseSink struct {
	w http.ResponseWriter
	r *http.Request
}

// Send writes one frame as an SSE data event.
func (s sseSink) Send(f hub.Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	_, err = s.w.Write([]byte("\n\n"))
	return err
}

// Context returns the request context for cancellation.
func (s sseSink) Context() context.Context { return s.r.Context() }

// Flush pushes buffered output to the client immediately.
func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// handleStream serves GET /v1/stream?tenant=&origin=&topic=&expr=.
//
// The subscription opens with a connected marker and a snapshot of every
// bucket in scope, then forwards new events as they are accepted. All
// scope parameters are optional; an unscoped stream observes everything.
func (c *StreamController) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	scope := streamScope{
		tenant: q.Get("tenant"),
		origin: q.Get("origin"),
		topic:  q.Get("topic"),
	}
	filter, err := query.NewFilter(q.Get("expr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expression: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	initial := append([]hub.Frame{{Kind: hub.FrameConnected}}, c.snapshot(scope, filter)...)
	sub := c.rt.Hub().Subscribe(initial...)
	defer c.rt.Hub().Unsubscribe(sub)

	sink := sseSink{w: w, r: r}
	for {
		select {
		case <-sink.Context().Done():
			return
		case <-sub.Done():
			return
		case f := <-sub.Frames():
			if f.Kind == hub.FrameNewLogs {
				var ok bool
				f, ok = scope.narrow(f, filter)
				if !ok {
					continue
				}
			}
			if err := sink.Send(f); err != nil {
				return
			}
			_ = sink.Flush()
		}
	}
}

// snapshot builds one initial_logs frame per in-scope origin so the
// subscriber starts from the store's current contents.
func (c *StreamController) snapshot(scope streamScope, filter query.Filter) []hub.Frame {
	st := c.rt.Store()
	var frames []hub.Frame
	for _, ti := range st.Tenants() {
		if scope.tenant != "" && ti.Name != scope.tenant {
			continue
		}
		for _, oi := range st.Origins(ti.Name) {
			if scope.origin != "" && oi.Name != scope.origin {
				continue
			}
			topics := make(map[string][]store.Event)
			for _, topicInfo := range st.Topics(ti.Name, oi.Name) {
				if scope.topic != "" && topicInfo.Name != scope.topic {
					continue
				}
				events, _ := st.ReadFunc(ti.Name, oi.Name, topicInfo.Name, 0, func(ev store.Event) bool {
					return filter.Eval(topicInfo.Name, ev)
				})
				if len(events) > 0 {
					topics[topicInfo.Name] = events
				}
			}
			if len(topics) > 0 {
				frames = append(frames, hub.Frame{
					Kind:   hub.FrameInitialLogs,
					Tenant: ti.Name,
					Origin: oi.Name,
					Topics: topics,
				})
			}
		}
	}
	return frames
}

// streamScope restricts a subscription to part of the hierarchy.
type streamScope struct {
	tenant, origin, topic string
}

// narrow filters a new_logs frame down to the scope and expression,
// reporting false when nothing survives.
func (s streamScope) narrow(f hub.Frame, filter query.Filter) (hub.Frame, bool) {
	if s.tenant != "" && f.Tenant != s.tenant {
		return f, false
	}
	if s.origin != "" && f.Origin != s.origin {
		return f, false
	}
	if s.topic == "" && !filter.Enabled() {
		return f, len(f.Topics) > 0
	}
	topics := make(map[string][]store.Event, len(f.Topics))
	for topic, events := range f.Topics {
		if s.topic != "" && topic != s.topic {
			continue
		}
		kept := events
		if filter.Enabled() {
			kept = kept[:0:0]
			for _, ev := range events {
				if filter.Eval(topic, ev) {
					kept = append(kept, ev)
				}
			}
		}
		if len(kept) > 0 {
			topics[topic] = kept
		}
	}
	if len(topics) == 0 {
		return f, false
	}
	f.Topics = topics
	return f, true
}
