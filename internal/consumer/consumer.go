package consumer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rzbill/logtap/internal/hub"
	"github.com/rzbill/logtap/internal/query"
	"github.com/rzbill/logtap/internal/selector"
	"github.com/rzbill/logtap/internal/store"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

// DefaultCacheCapacity bounds each mirrored bucket.
const DefaultCacheCapacity = 1000

// Options configures a Consumer.
type Options struct {
	// BaseURL is the relay server, e.g. "http://127.0.0.1:8787".
	BaseURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// CacheCapacity bounds each cached bucket. Zero means DefaultCacheCapacity.
	CacheCapacity int
	Logger        logpkg.Logger
}

// Request addresses one read. Tenant is required; origin and topic go
// through the selection policy when omitted.
type Request struct {
	Tenant string
	Origin string
	Topic  string
	Limit  int
	Filter string
	// Expr is an optional CEL expression evaluated per event.
	Expr string
}

// Result is one answered read.
type Result struct {
	Tenant     string
	Origin     string
	Topic      string
	AutoOrigin bool
	AutoTopic  bool
	Events     []store.Event
	Total      int
	// FromCache is true when the answer came from the mirrored cache
	// rather than a point query.
	FromCache bool
}

// Consumer holds the single push subscription and the mirrored cache.
type Consumer struct {
	baseURL string
	client  *http.Client
	cache   *cache
	logger  logpkg.Logger

	state   atomic.Int32
	dialing atomic.Bool
}

// New creates a Consumer in the Disconnected state.
func New(opts Options) *Consumer {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	capacity := opts.CacheCapacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Consumer{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  client,
		cache:   newCache(capacity),
		logger:  logger.WithComponent("consumer"),
	}
}

// State returns the current subscription state.
func (c *Consumer) State() State { return State(c.state.Load()) }

func (c *Consumer) setState(s State) { c.state.Store(int32(s)) }

// Connect starts the subscription in the background if one is not already
// running or in flight. It never blocks the caller.
func (c *Consumer) Connect(ctx context.Context) {
	if c.State() == StateStreaming {
		return
	}
	if !c.dialing.CompareAndSwap(false, true) {
		return
	}
	go c.stream(ctx)
}

// stream runs one subscription until it ends, maintaining the state
// machine and the cache.
func (c *Consumer) stream(ctx context.Context) {
	defer c.dialing.Store(false)
	c.setState(StateConnecting)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/stream", nil)
	if err != nil {
		c.setState(StateDisconnected)
		return
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("subscription attempt failed", logpkg.Err(err))
		c.setState(StateDisconnected)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("subscription rejected", logpkg.Int("status", resp.StatusCode))
		c.setState(StateDisconnected)
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame hub.Frame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			c.logger.Warn("bad stream frame", logpkg.Err(err))
			continue
		}
		c.handleFrame(frame)
	}

	if ctx.Err() != nil {
		c.setState(StateDisconnected)
		return
	}
	// A dead stream degrades reads to point queries; it never fails them.
	c.logger.Info("subscription lost, falling back to point queries")
	c.setState(StateDegraded)
}

func (c *Consumer) handleFrame(f hub.Frame) {
	switch f.Kind {
	case hub.FrameConnected:
		c.setState(StateStreaming)
		c.logger.Debug("subscription established")
	case hub.FrameInitialLogs:
		for topic, events := range f.Topics {
			c.cache.replace(addr{f.Tenant, f.Origin, topic}, events)
		}
	case hub.FrameNewLogs:
		for topic, events := range f.Topics {
			c.cache.append(addr{f.Tenant, f.Origin, topic}, events)
		}
	case hub.FrameKeepalive:
		// Observed but otherwise a no-op.
	}
}

// GetLogs answers one read request. While streaming it resolves the
// address against the cache; otherwise it falls back to a point query and
// opportunistically kicks off a reconnect.
func (c *Consumer) GetLogs(ctx context.Context, req Request) (*Result, error) {
	if req.Tenant == "" {
		return nil, fmt.Errorf("tenant is required")
	}
	if c.State() == StateStreaming {
		return c.getFromCache(req)
	}
	c.Connect(ctx)
	return c.getFromServer(ctx, req)
}

func (c *Consumer) getFromCache(req Request) (*Result, error) {
	or := selector.SelectOrigin(c.cache.origins(req.Tenant), req.Origin)
	switch or.Status {
	case selector.StatusAmbiguous:
		return nil, &query.AmbiguousError{Component: "origin", Candidates: or.Candidates}
	case selector.StatusNotFound:
		return nil, &query.NotFoundError{Component: "origin", Requested: req.Origin, Candidates: or.Candidates}
	}
	tr := selector.SelectTopic(c.cache.topics(req.Tenant, or.Name), req.Topic)
	switch tr.Status {
	case selector.StatusAmbiguous:
		return nil, &query.AmbiguousError{Component: "topic", Candidates: tr.Candidates}
	case selector.StatusNotFound:
		return nil, &query.NotFoundError{Component: "topic", Requested: req.Topic, Candidates: tr.Candidates}
	}

	filter, err := query.NewFilter(req.Expr)
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}
	events, total := c.cache.readFunc(addr{req.Tenant, or.Name, tr.Name}, req.Limit, func(ev store.Event) bool {
		return ev.MatchText(req.Filter) && filter.Eval(tr.Name, ev)
	})
	return &Result{
		Tenant:     req.Tenant,
		Origin:     or.Name,
		Topic:      tr.Name,
		AutoOrigin: or.Auto,
		AutoTopic:  tr.Auto,
		Events:     events,
		Total:      total,
		FromCache:  true,
	}, nil
}

// getFromServer is the degraded path: a direct range query. The server
// applies the same selection policy, so the disambiguation answers are
// identical to the cache path.
func (c *Consumer) getFromServer(ctx context.Context, req Request) (*Result, error) {
	params := url.Values{}
	params.Set("tenant", req.Tenant)
	if req.Origin != "" {
		params.Set("origin", req.Origin)
	}
	if req.Topic != "" {
		params.Set("topic", req.Topic)
	}
	if req.Limit > 0 {
		params.Set("lines", strconv.Itoa(req.Limit))
	}
	if req.Filter != "" {
		params.Set("filter", req.Filter)
	}
	if req.Expr != "" {
		params.Set("expr", req.Expr)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/logs?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("point query failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Tenant     string        `json:"tenant"`
			Origin     string        `json:"origin"`
			Topic      string        `json:"topic"`
			AutoOrigin bool          `json:"autoOrigin"`
			AutoTopic  bool          `json:"autoTopic"`
			Events     []store.Event `json:"events"`
			Total      int           `json:"total"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("point query decode: %w", err)
		}
		return &Result{
			Tenant:     body.Tenant,
			Origin:     body.Origin,
			Topic:      body.Topic,
			AutoOrigin: body.AutoOrigin,
			AutoTopic:  body.AutoTopic,
			Events:     body.Events,
			Total:      body.Total,
		}, nil
	case http.StatusConflict, http.StatusNotFound:
		var body struct {
			Component  string   `json:"component"`
			Candidates []string `json:"candidates"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("point query decode: %w", err)
		}
		if resp.StatusCode == http.StatusConflict {
			return nil, &query.AmbiguousError{Component: body.Component, Candidates: body.Candidates}
		}
		requested := req.Origin
		if body.Component == "topic" {
			requested = req.Topic
		}
		return nil, &query.NotFoundError{Component: body.Component, Requested: requested, Candidates: body.Candidates}
	default:
		return nil, fmt.Errorf("point query status %d", resp.StatusCode)
	}
}
