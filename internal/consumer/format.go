package consumer

import (
	"fmt"
	"strings"
	"time"

	"github.com/rzbill/logtap/internal/store"
)

// Render formats a result for a human or an AI tool reading plain text.
func (r *Result) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s/%s: %d of %d events", r.Tenant, r.Origin, r.Topic, len(r.Events), r.Total)
	if r.AutoOrigin || r.AutoTopic {
		b.WriteString(" (auto-selected)")
	}
	b.WriteString("\n")
	if len(r.Events) == 0 {
		b.WriteString("no matching events\n")
		return b.String()
	}
	for _, ev := range r.Events {
		b.WriteString(renderEvent(ev))
		b.WriteString("\n")
	}
	return b.String()
}

func renderEvent(ev store.Event) string {
	ts := time.UnixMilli(ev.Timestamp).Format("15:04:05.000")
	switch p := ev.Payload.(type) {
	case store.ConsoleRecord:
		line := fmt.Sprintf("%s %-5s %s", ts, strings.ToUpper(p.Level), p.Message)
		if p.Source != "" {
			line += " (" + p.Source + ")"
		}
		return line
	case store.StructuredRecord:
		return fmt.Sprintf("%s %s", ts, string(p.Data))
	default:
		return ts
	}
}
