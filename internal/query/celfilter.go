package query

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/logtap/internal/store"
)

// Filter wraps a compiled CEL program evaluated per event. When disabled,
// Eval always returns true.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr. An empty expression yields a disabled filter.
//
// Available variables: level, message, source, topic, text, ts_ms, json,
// now_ms. Console events expose level/message/source; structured events
// expose their parsed payload as json.
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("level", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("source", cel.StringType),
		cel.Variable("topic", cel.StringType),
		cel.Variable("text", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("json", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return Filter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Enabled reports whether the filter carries a compiled expression.
func (f Filter) Enabled() bool { return f.enabled }

// Eval evaluates the expression against one event. Evaluation errors
// exclude the event rather than failing the query.
func (f Filter) Eval(topic string, ev store.Event) bool {
	if !f.enabled {
		return true
	}
	var level, message, source string
	var jsonObj any
	switch p := ev.Payload.(type) {
	case store.ConsoleRecord:
		level, message, source = p.Level, p.Message, p.Source
	case store.StructuredRecord:
		_ = json.Unmarshal(p.Data, &jsonObj)
	}
	text := ""
	if ev.Payload != nil {
		text = ev.Payload.Text()
	}
	out, _, err := f.prog.Eval(map[string]any{
		"level":   level,
		"message": message,
		"source":  source,
		"topic":   topic,
		"text":    text,
		"ts_ms":   ev.Timestamp,
		"json":    jsonObj,
		"now_ms":  time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
