package controllers

import (
	"net/http"

	"github.com/rzbill/logtap/internal/query"
	"github.com/rzbill/logtap/internal/runtime"
)

// Registry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes.
type Registry struct {
	general *GeneralController
	ingest  *IngestController
	query   *QueryController
	stream  *StreamController
}

// NewRegistry creates a registry with all controllers wired to the runtime.
func NewRegistry(rt *runtime.Runtime, querySvc *query.Service) *Registry {
	return &Registry{
		general: NewGeneralController(rt),
		ingest:  NewIngestController(rt),
		query:   NewQueryController(rt, querySvc),
		stream:  NewStreamController(rt),
	}
}

// RegisterAllRoutes registers every controller's routes with the mux.
func (r *Registry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.ingest.RegisterRoutes(mux)
	r.query.RegisterRoutes(mux)
	r.stream.RegisterRoutes(mux)
}
