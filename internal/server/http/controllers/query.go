package controllers

import (
	"errors"
	"net/http"

	"github.com/rzbill/logtap/internal/query"
	"github.com/rzbill/logtap/internal/runtime"
)

// QueryController handles range queries over stored events.
type QueryController struct {
	rt  *runtime.Runtime
	svc *query.Service
}

// NewQueryController creates a new query controller.
func NewQueryController(rt *runtime.Runtime, svc *query.Service) *QueryController {
	return &QueryController{rt: rt, svc: svc}
}

// RegisterRoutes registers the range-query route with the given mux.
func (c *QueryController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/logs", c.handleLogs)
}

// handleLogs serves GET /v1/logs?tenant=&origin=&topic=&lines=&filter=&expr=.
//
// Origin and topic are optional; when the selection policy cannot resolve
// them the response lists the candidates so the caller can retry with the
// missing parameter. A missing address is a 404 listing what does exist.
func (c *QueryController) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	tenant := q.Get("tenant")
	if tenant == "" {
		writeError(w, http.StatusBadRequest, "tenant parameter is required")
		return
	}
	res, err := c.svc.Query(query.Params{
		Tenant: tenant,
		Origin: q.Get("origin"),
		Topic:  q.Get("topic"),
		Lines:  parseInt(q.Get("lines")),
		Filter: q.Get("filter"),
		Expr:   q.Get("expr"),
	})
	if err != nil {
		var amb *query.AmbiguousError
		if errors.As(err, &amb) {
			writeJSONStatus(w, http.StatusConflict, map[string]any{
				"error":      amb.Error(),
				"component":  amb.Component,
				"candidates": amb.Candidates,
			})
			return
		}
		var nf *query.NotFoundError
		if errors.As(err, &nf) {
			writeJSONStatus(w, http.StatusNotFound, map[string]any{
				"error":      nf.Error(),
				"component":  nf.Component,
				"candidates": nf.Candidates,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, res)
}
