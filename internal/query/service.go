package query

import (
	"fmt"
	"strings"

	cfgpkg "github.com/rzbill/logtap/internal/config"
	"github.com/rzbill/logtap/internal/selector"
	"github.com/rzbill/logtap/internal/store"
)

// AmbiguousError reports a query that matched several candidates for one
// address component. The caller must supply the missing parameter.
type AmbiguousError struct {
	Component  string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("multiple %ss available, specify one of: %s",
		e.Component, strings.Join(e.Candidates, ", "))
}

// NotFoundError reports an address component with no usable candidate.
type NotFoundError struct {
	Component  string
	Requested  string
	Candidates []string
}

func (e *NotFoundError) Error() string {
	if e.Requested != "" && len(e.Candidates) > 0 {
		return fmt.Sprintf("%s %q not found, available: %s",
			e.Component, e.Requested, strings.Join(e.Candidates, ", "))
	}
	if e.Requested != "" {
		return fmt.Sprintf("%s %q not found", e.Component, e.Requested)
	}
	return fmt.Sprintf("no %s found", e.Component)
}

// Params addresses one range query. Tenant is required; origin and topic
// are resolved through the selection policy when omitted.
type Params struct {
	Tenant string
	Origin string
	Topic  string
	Lines  int
	Filter string
	Expr   string
}

// Response is a resolved range query.
type Response struct {
	Tenant     string        `json:"tenant"`
	Origin     string        `json:"origin"`
	Topic      string        `json:"topic"`
	AutoOrigin bool          `json:"autoOrigin,omitempty"`
	AutoTopic  bool          `json:"autoTopic,omitempty"`
	Events     []store.Event `json:"events"`
	Total      int           `json:"total"`
}

// Service performs reads against the shared store.
type Service struct {
	store *store.Store
	cfg   cfgpkg.Config
}

// New creates a query service.
func New(st *store.Store, cfg cfgpkg.Config) *Service {
	return &Service{store: st, cfg: cfg}
}

// ClampLines applies the default and maximum line limits.
func (s *Service) ClampLines(lines int) int {
	if lines <= 0 {
		return s.cfg.DefaultQueryLines
	}
	if lines > s.cfg.MaxQueryLines {
		return s.cfg.MaxQueryLines
	}
	return lines
}

// Resolve applies the selection policy to the origin and topic components
// of an address. It returns the concrete address or an *AmbiguousError /
// *NotFoundError explaining what to supply.
func (s *Service) Resolve(tenant, origin, topic string) (string, string, bool, bool, error) {
	originNames := names(s.store.Origins(tenant))
	or := selector.SelectOrigin(originNames, origin)
	switch or.Status {
	case selector.StatusAmbiguous:
		return "", "", false, false, &AmbiguousError{Component: "origin", Candidates: or.Candidates}
	case selector.StatusNotFound:
		return "", "", false, false, &NotFoundError{Component: "origin", Requested: origin, Candidates: or.Candidates}
	}

	topicNames := topicNamesOf(s.store.Topics(tenant, or.Name))
	tr := selector.SelectTopic(topicNames, topic)
	switch tr.Status {
	case selector.StatusAmbiguous:
		return "", "", false, false, &AmbiguousError{Component: "topic", Candidates: tr.Candidates}
	case selector.StatusNotFound:
		return "", "", false, false, &NotFoundError{Component: "topic", Requested: topic, Candidates: tr.Candidates}
	}
	return or.Name, tr.Name, or.Auto, tr.Auto, nil
}

// Query resolves the address and reads the matching events. The substring
// filter and the CEL expression combine conjunctively.
func (s *Service) Query(p Params) (Response, error) {
	origin, topic, autoOrigin, autoTopic, err := s.Resolve(p.Tenant, p.Origin, p.Topic)
	if err != nil {
		return Response{}, err
	}
	filter, err := NewFilter(p.Expr)
	if err != nil {
		return Response{}, fmt.Errorf("invalid expression: %w", err)
	}
	lines := s.ClampLines(p.Lines)

	events, total := s.store.ReadFunc(p.Tenant, origin, topic, lines, func(ev store.Event) bool {
		return ev.MatchText(p.Filter) && filter.Eval(topic, ev)
	})
	if events == nil {
		events = []store.Event{}
	}
	return Response{
		Tenant:     p.Tenant,
		Origin:     origin,
		Topic:      topic,
		AutoOrigin: autoOrigin,
		AutoTopic:  autoTopic,
		Events:     events,
		Total:      total,
	}, nil
}

func names(infos []store.OriginInfo) []string {
	out := make([]string, len(infos))
	for i, oi := range infos {
		out[i] = oi.Name
	}
	return out
}

func topicNamesOf(infos []store.TopicInfo) []string {
	out := make([]string, len(infos))
	for i, ti := range infos {
		out[i] = ti.Name
	}
	return out
}
