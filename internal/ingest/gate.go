package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rzbill/logtap/internal/config"
	"github.com/rzbill/logtap/internal/store"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

// Publisher receives the accepted subset of a submission for fan-out.
type Publisher interface {
	Publish(tenant, origin string, topics map[string][]store.Event)
}

// Archiver mirrors accepted events into a side sink. Optional.
type Archiver interface {
	Archive(tenant, origin string, topics map[string][]store.Event)
}

// Request is one producer submission: a topic-keyed batch of events for a
// single (tenant, origin).
type Request struct {
	Tenant string `json:"tenant" validate:"required"`
	Origin string `json:"origin" validate:"required"`
	// Logs maps topic name to a single event or a sequence of events.
	Logs map[string]json.RawMessage `json:"logs" validate:"required"`
}

// Result reports a processed submission. A fully suppressed batch is a
// normal outcome, not an error.
type Result struct {
	Stored     int
	Suppressed int
}

// Gate validates, rate-limits, and deduplicates submissions before writing
// them to the store and notifying the publisher.
type Gate struct {
	store     *store.Store
	publisher Publisher
	archiver  Archiver

	dedup    *dedupTable
	limiter  *rateLimiter
	validate *validator.Validate
	logger   logpkg.Logger

	// nowMs is swappable in tests.
	nowMs func() int64
}

// New creates a Gate writing to st and notifying pub. archiver may be nil.
func New(cfg config.Config, st *store.Store, pub Publisher, archiver Archiver, logger logpkg.Logger) *Gate {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Gate{
		store:     st,
		publisher: pub,
		archiver:  archiver,
		dedup:     newDedupTable(int64(cfg.Dedup.TTLMs), cfg.Dedup.MaxEntries),
		limiter:   newRateLimiter(cfg.RateLimit),
		validate:  validator.New(),
		logger:    logger.WithComponent("ingest"),
		nowMs:     func() int64 { return time.Now().UnixMilli() },
	}
}

// Submit runs the full ingestion pipeline for one submission. clientAddr
// is the producer's network address, used as the rate-limit identity.
//
// Errors are decided before any store mutation: a *ValidationError for a
// malformed request, a *RateLimitError past the client's budget. After
// dedup, surviving events are written per topic, published to subscribers,
// and mirrored to the archiver when one is configured.
func (g *Gate) Submit(req Request, clientAddr string) (Result, error) {
	if err := g.validate.Struct(req); err != nil {
		return Result{}, &ValidationError{Reason: "tenant, origin, and logs are required"}
	}
	if len(req.Logs) == 0 {
		return Result{}, &ValidationError{Reason: "logs must be a non-empty map of topic to events"}
	}

	now := g.nowMs()
	if ok, retryAfter := g.limiter.allow(clientAddr, now); !ok {
		g.logger.Warn("submission rate limited",
			logpkg.Str("tenant", req.Tenant),
			logpkg.Str("client", clientAddr))
		return Result{}, &RateLimitError{RetryAfter: retryAfter}
	}

	// Parse every topic before touching the store so a malformed topic
	// rejects the whole batch instead of leaving it partially applied.
	parsed := make(map[string][]store.Event, len(req.Logs))
	total := 0
	for topic, raw := range req.Logs {
		if topic == "" {
			return Result{}, &ValidationError{Reason: "topic names must be non-empty"}
		}
		events, err := parseTopicEvents(topic, raw, now)
		if err != nil {
			return Result{}, &ValidationError{Reason: fmt.Sprintf("topic %q: %v", topic, err)}
		}
		parsed[topic] = events
		total += len(events)
	}

	accepted := make(map[string][]store.Event, len(parsed))
	stored := 0
	for topic, events := range parsed {
		fresh := events[:0:0]
		for _, ev := range events {
			if g.dedup.observe(fingerprint(req.Tenant, req.Origin, topic, ev), now) {
				fresh = append(fresh, ev)
			}
		}
		// A topic whose events were all duplicates is omitted entirely.
		if len(fresh) == 0 {
			continue
		}
		accepted[topic] = g.store.Write(req.Tenant, req.Origin, topic, fresh)
		stored += len(fresh)
	}

	if stored == 0 {
		return Result{Stored: 0, Suppressed: total}, nil
	}

	if g.publisher != nil {
		g.publisher.Publish(req.Tenant, req.Origin, accepted)
	}
	if g.archiver != nil {
		g.archiver.Archive(req.Tenant, req.Origin, accepted)
	}

	g.logger.Debug("submission stored",
		logpkg.Str("tenant", req.Tenant),
		logpkg.Str("origin", req.Origin),
		logpkg.Int("stored", stored),
		logpkg.Int("suppressed", total-stored))
	return Result{Stored: stored, Suppressed: total - stored}, nil
}

// consoleEventIn is the accepted wire shape for console-topic entries.
type consoleEventIn struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
	Ts        int64  `json:"ts"`
}

// parseTopicEvents decodes a topic value, which may be a single event or a
// sequence. The reserved console topic decodes into leveled records; every
// other topic keeps its elements as raw structured payloads.
func parseTopicEvents(topic string, raw json.RawMessage, nowMs int64) ([]store.Event, error) {
	elements, err := splitElements(raw)
	if err != nil {
		return nil, err
	}
	events := make([]store.Event, 0, len(elements))
	for _, el := range elements {
		if topic == config.ConsoleTopic {
			var in consoleEventIn
			if err := json.Unmarshal(el, &in); err != nil {
				return nil, fmt.Errorf("console events must be objects: %w", err)
			}
			if in.Message == "" {
				return nil, fmt.Errorf("console events require a message")
			}
			if in.Level == "" {
				in.Level = "log"
			}
			ts := in.Timestamp
			if ts == 0 {
				ts = in.Ts
			}
			if ts == 0 {
				ts = nowMs
			}
			events = append(events, store.Event{
				Timestamp: ts,
				Payload:   store.ConsoleRecord{Level: in.Level, Message: in.Message, Source: in.Source},
			})
			continue
		}
		compact, err := canonicalJSON(el)
		if err != nil {
			return nil, err
		}
		events = append(events, store.Event{
			Timestamp: nowMs,
			Payload:   store.StructuredRecord{Data: compact},
		})
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no events")
	}
	return events, nil
}

// splitElements returns the elements of a JSON array, or the value itself
// as a single element.
func splitElements(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := trimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	if trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("invalid JSON")
	}
	return []json.RawMessage{trimmed}, nil
}

// canonicalJSON re-marshals a value so that key order and whitespace do
// not defeat fingerprinting of otherwise identical payloads.
func canonicalJSON(raw json.RawMessage) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && (b[start] == ' ' || b[start] == '\t' || b[start] == '\n' || b[start] == '\r') {
		start++
	}
	end := len(b)
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t' || b[end-1] == '\n' || b[end-1] == '\r') {
		end--
	}
	return b[start:end]
}

// DedupSize reports the fingerprint table size, for status introspection.
func (g *Gate) DedupSize() int { return g.dedup.size() }
