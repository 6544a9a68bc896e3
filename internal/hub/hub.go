package hub

import (
	"context"
	"sync"
	"time"

	"github.com/rzbill/logtap/internal/store"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

// Frame kinds pushed over a subscription.
const (
	FrameConnected   = "connected"
	FrameInitialLogs = "initial_logs"
	FrameNewLogs     = "new_logs"
	FrameKeepalive   = "keepalive"
)

// Frame is a single push unit delivered to subscribers.
type Frame struct {
	Kind   string                   `json:"type"`
	Tenant string                   `json:"tenant,omitempty"`
	Origin string                   `json:"origin,omitempty"`
	Topics map[string][]store.Event `json:"logs,omitempty"`
}

// Options configures a Hub.
type Options struct {
	// Buffer is the per-subscriber queue depth. Zero means 64.
	Buffer int
	// SendTimeout bounds one push to a full subscriber queue. Zero means 1s.
	SendTimeout time.Duration
	// Keepalive is the interval between keepalive frames. Zero means 30s.
	Keepalive time.Duration
}

// Hub maintains the live subscriber set.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}

	buffer      int
	sendTimeout time.Duration
	keepalive   time.Duration
	logger      logpkg.Logger
}

// Subscriber is one live push channel. Subscribers come from Hub.Subscribe;
// the zero value is not usable.
//
// The frame channel is never closed while senders may exist; termination is
// signalled through Done instead, so receivers must select over both.
type Subscriber struct {
	ch        chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

// Frames returns the subscriber's receive channel.
func (s *Subscriber) Frames() <-chan Frame { return s.ch }

// Done is closed when the subscriber has been dropped or unsubscribed.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// New creates a Hub.
func New(opts Options, logger logpkg.Logger) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = time.Second
	}
	if opts.Keepalive <= 0 {
		opts.Keepalive = 30 * time.Second
	}
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Hub{
		subs:        make(map[*Subscriber]struct{}),
		buffer:      opts.Buffer,
		sendTimeout: opts.SendTimeout,
		keepalive:   opts.Keepalive,
		logger:      logger.WithComponent("hub"),
	}
}

// Subscribe registers a new subscriber. The optional initial frames
// (connected marker, snapshot) are queued ahead of any published event so
// the consumer observes them first.
func (h *Hub) Subscribe(initial ...Frame) *Subscriber {
	sub := &Subscriber{
		ch:   make(chan Frame, h.buffer+len(initial)),
		done: make(chan struct{}),
	}
	for _, f := range initial {
		sub.ch <- f
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.logger.Debug("subscriber added", logpkg.Int("subscribers", n))
	return sub
}

// Unsubscribe removes a subscriber and signals its Done channel. It is
// idempotent and safe to call from any goroutine at any time.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, present := h.subs[sub]
	delete(h.subs, sub)
	n := len(h.subs)
	h.mu.Unlock()
	sub.closeOnce.Do(func() { close(sub.done) })
	if present {
		h.logger.Debug("subscriber removed", logpkg.Int("subscribers", n))
	}
}

// Publish fans the accepted events out to every current subscriber. A
// subscriber that cannot take the frame within the send deadline is
// dropped; delivery to the others continues and Publish never reports an
// error to the caller.
func (h *Hub) Publish(tenant, origin string, topics map[string][]store.Event) {
	if len(topics) == 0 {
		return
	}
	h.broadcast(Frame{Kind: FrameNewLogs, Tenant: tenant, Origin: origin, Topics: topics})
}

// Run emits keepalive frames on a fixed interval until ctx is done, so
// consumers can tell an idle stream from a dead one.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(Frame{Kind: FrameKeepalive})
		}
	}
}

// Count returns the current number of subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) broadcast(f Frame) {
	h.mu.Lock()
	targets := make([]*Subscriber, 0, len(h.subs))
	for sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	var timer *time.Timer
	for _, sub := range targets {
		select {
		case sub.ch <- f:
			continue
		case <-sub.done:
			continue
		default:
		}
		// Queue full: give the subscriber the send deadline to drain.
		if timer == nil {
			timer = time.NewTimer(h.sendTimeout)
		} else {
			timer.Reset(h.sendTimeout)
		}
		select {
		case sub.ch <- f:
			if !timer.Stop() {
				<-timer.C
			}
		case <-sub.done:
			if !timer.Stop() {
				<-timer.C
			}
		case <-timer.C:
			h.logger.Warn("dropping slow subscriber",
				logpkg.Int("queue_cap", cap(sub.ch)),
				logpkg.Duration("send_timeout", h.sendTimeout))
			h.Unsubscribe(sub)
		}
	}
}
