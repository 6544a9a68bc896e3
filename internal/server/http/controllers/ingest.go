package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rzbill/logtap/internal/ingest"
	"github.com/rzbill/logtap/internal/runtime"
)

// IngestController handles producer submissions.
type IngestController struct {
	rt *runtime.Runtime
}

// NewIngestController creates a new ingest controller.
func NewIngestController(rt *runtime.Runtime) *IngestController {
	return &IngestController{rt: rt}
}

// RegisterRoutes registers the ingestion route with the given mux.
func (c *IngestController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/ingest", c.handleIngest)
}

// handleIngest accepts one submission and reports the stored and
// suppressed counts. Validation failures map to 400, rate limiting to 429
// with a Retry-After header. A fully suppressed batch is a 200 with
// status "skipped".
func (c *IngestController) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req ingest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := c.rt.Gate().Submit(req, r.RemoteAddr)
	if err != nil {
		var ve *ingest.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		var rle *ingest.RateLimitError
		if errors.As(err, &rle) {
			retryAfter := int64(rle.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":      rle.Error(),
				"retryAfter": retryAfter,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to process submission")
		return
	}
	status := "success"
	if res.Stored == 0 {
		status = "skipped"
	}
	writeJSON(w, map[string]any{
		"status":   status,
		"stored":   res.Stored,
		"filtered": res.Suppressed,
	})
}
