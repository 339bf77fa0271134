// Package routing provides the assignment router: given a lead's language
// and centre, it selects the human agents eligible to own the lead. It
// replaces the ad-hoc per-form filtering the product grew up with; every
// caller shares this one matching policy.
package routing

import (
	"leadcrm_backend/internal/refdata"
	"leadcrm_backend/platform/apperr"

	"github.com/google/uuid"
)

// Policy controls what happens when more than one agent matches.
type Policy int

const (
	// PolicyCandidates returns the full match list and never picks; a human
	// (or an explicit caller-side policy) chooses. This is the default:
	// no automatic tie-break is part of the business rules.
	PolicyCandidates Policy = iota
	// PolicyFirstAvailable deterministically picks the first candidate in
	// roster order. Used by the bulk import pipeline, which has no human in
	// the loop.
	PolicyFirstAvailable
)

// Request describes one routing query.
type Request struct {
	// Role is the target agent family: refdata.FamilyPresales or
	// refdata.FamilySales.
	Role string
	// Language filters presales agents (and sales agents that carry a
	// language set).
	Language string
	// Centre filters sales agents; ignored for presales.
	Centre string
	// Pool filters presales agents by assignment pool ("" matches any).
	Pool string
	// Exclude removes one agent from the candidate set, used when
	// re-resolving away from the current owner.
	Exclude *uuid.UUID
}

// Router matches roster entries against routing requests.
type Router struct {
	ref *refdata.Store
}

func New(ref *refdata.Store) *Router {
	return &Router{ref: ref}
}

// Candidates returns every active agent matching the request, in roster
// order. An empty result is a legitimate outcome, not an error; use Resolve
// when exhaustion must be surfaced as a RoutingError.
func (r *Router) Candidates(req Request) []refdata.User {
	snap := r.ref.Snapshot()
	matches := make([]refdata.User, 0)

	for _, u := range snap.Users {
		if !u.Active {
			continue
		}
		if req.Exclude != nil && u.ID == *req.Exclude {
			continue
		}
		if !matchesRole(u, req) {
			continue
		}
		matches = append(matches, u)
	}

	return matches
}

func matchesRole(u refdata.User, req Request) bool {
	switch req.Role {
	case refdata.FamilyPresales:
		if u.Role != refdata.RolePresalesAgent {
			return false
		}
		if req.Pool != "" && u.Pool != req.Pool {
			return false
		}
		// Centre is not a presales filter.
		return req.Language == "" || u.SpeaksLanguage(req.Language)
	case refdata.FamilySales:
		if u.Role != refdata.RoleSalesAgent {
			return false
		}
		if u.Centre != req.Centre {
			return false
		}
		// A sales agent with a language set must also cover the lead's
		// language; one without a language set serves the whole centre.
		if req.Language != "" && len(u.Languages) > 0 && !u.SpeaksLanguage(req.Language) {
			return false
		}
		return true
	}
	return false
}

// Resolve picks an agent under the given policy. With PolicyCandidates a
// multi-candidate result returns the list and no selection; the caller must
// choose. Exhaustion is always a typed RoutingError, never a nil agent.
func (r *Router) Resolve(req Request, policy Policy) (*refdata.User, []refdata.User, error) {
	candidates := r.Candidates(req)
	if len(candidates) == 0 {
		return nil, nil, apperr.Routing(noMatchMessage(req))
	}

	if len(candidates) == 1 || policy == PolicyFirstAvailable {
		agent := candidates[0]
		return &agent, candidates, nil
	}

	return nil, candidates, nil
}

func noMatchMessage(req Request) string {
	if req.Role == refdata.FamilySales {
		return "no sales agent available for centre " + req.Centre + " and language " + req.Language
	}
	return "no presales agent available for language " + req.Language
}
