package ingest

import (
	"fmt"
	"time"
)

// ValidationError rejects a malformed submission. Nothing is stored and
// the producer should not retry without fixing the request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s", e.Reason)
}

// RateLimitError rejects a submission from a client that exceeded its
// request budget. RetryAfter hints when the window resets.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}
