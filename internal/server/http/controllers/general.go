package controllers

import (
	"net/http"

	"github.com/rzbill/logtap/internal/runtime"
	"github.com/rzbill/logtap/internal/store"
)

// GeneralController handles the health and status endpoints.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers general routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Liveness (/v1/healthz)
// - Store introspection (/v1/status)
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", c.handleHealth)
	mux.HandleFunc("/v1/status", c.handleStatus)
}

// handleHealth reports liveness with uptime and the aggregate tenant count.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]any{
		"status":   "ok",
		"uptimeMs": c.rt.Uptime().Milliseconds(),
		"tenants":  len(c.rt.Store().Tenants()),
	})
}

// statusTenant is one tenant's slice of the status response.
type statusTenant struct {
	store.TenantInfo
	OriginDetail []statusOrigin `json:"originDetail"`
}

type statusOrigin struct {
	store.OriginInfo
	TopicDetail []store.TopicInfo `json:"topicDetail"`
}

// handleStatus returns the full tenant/origin/topic hierarchy with counts
// and activity timestamps, plus aggregate totals.
func (c *GeneralController) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	st := c.rt.Store()
	tenants := make([]statusTenant, 0)
	for _, ti := range st.Tenants() {
		entry := statusTenant{TenantInfo: ti}
		for _, oi := range st.Origins(ti.Name) {
			entry.OriginDetail = append(entry.OriginDetail, statusOrigin{
				OriginInfo:  oi,
				TopicDetail: st.Topics(ti.Name, oi.Name),
			})
		}
		tenants = append(tenants, entry)
	}
	writeJSON(w, map[string]any{
		"tenants":     tenants,
		"totalEvents": st.TotalEvents(),
		"subscribers": c.rt.Hub().Count(),
		"dedupSize":   c.rt.Gate().DedupSize(),
		"uptimeMs":    c.rt.Uptime().Milliseconds(),
	})
}
