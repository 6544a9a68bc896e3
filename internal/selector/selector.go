package selector

import "github.com/rzbill/logtap/internal/config"

// Status is the outcome of a selection.
type Status int

const (
	// StatusSelected means a single candidate was chosen.
	StatusSelected Status = iota
	// StatusAmbiguous means several candidates exist and none was requested.
	StatusAmbiguous
	// StatusNotFound means no candidate exists, or the requested name
	// matched none.
	StatusNotFound
)

// Result is the outcome of resolving one address component.
type Result struct {
	Status Status
	// Name is the chosen candidate when Status is StatusSelected.
	Name string
	// Auto is true when the candidate was chosen without an explicit request.
	Auto bool
	// Candidates lists the available names for Ambiguous and NotFound results.
	Candidates []string
}

// SelectOrigin resolves the origin component of a query address.
func SelectOrigin(candidates []string, requested string) Result {
	return selectOne(candidates, requested)
}

// SelectTopic resolves the topic component. On top of the general rules,
// a lone reserved console topic is always auto-selected: it is the
// overwhelmingly common case and should not force an explicit parameter.
func SelectTopic(candidates []string, requested string) Result {
	if requested == "" && len(candidates) == 1 && candidates[0] == config.ConsoleTopic {
		return Result{Status: StatusSelected, Name: config.ConsoleTopic, Auto: true}
	}
	return selectOne(candidates, requested)
}

// selectOne applies the shared policy: an explicit request must match
// exactly; with no request, a single candidate is auto-selected and
// multiple candidates are reported back unresolved.
func selectOne(candidates []string, requested string) Result {
	if requested != "" {
		for _, c := range candidates {
			if c == requested {
				return Result{Status: StatusSelected, Name: c}
			}
		}
		return Result{Status: StatusNotFound, Candidates: candidates}
	}
	switch len(candidates) {
	case 0:
		return Result{Status: StatusNotFound}
	case 1:
		return Result{Status: StatusSelected, Name: candidates[0], Auto: true}
	default:
		return Result{Status: StatusAmbiguous, Candidates: candidates}
	}
}
