// Package guard decides whether a session may reach a requested view.
// Decide is a pure function; it is re-evaluated on every navigation and on
// every session transition, never cached.
package guard

import (
	"github.com/your-org/storefront-client/internal/domain/session"
)

// Requirement is what a view demands of the session
type Requirement int

const (
	RequireNone Requirement = iota
	RequireAuthenticated
	RequireAdmin
)

// Decision is the guard's verdict for a navigation attempt
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

// Decide maps (session, requirement) to a verdict
func Decide(s session.Session, req Requirement) Decision {
	switch req {
	case RequireAuthenticated:
		if !s.Authenticated {
			return RedirectLogin
		}
		return Allow
	case RequireAdmin:
		if !s.Authenticated {
			return RedirectLogin
		}
		if !s.IsAdmin() {
			return RedirectHome
		}
		return Allow
	default:
		return Allow
	}
}

// View paths, mirroring the storefront's navigation surface
const (
	PathLanding  = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathCatalog  = "/products"
	PathCart     = "/cart"
	PathAdmin    = "/admin"
)

// Route binds a view path to its requirement. AnonymousOnly marks views that
// authenticated users are bounced away from (landing, login, register).
type Route struct {
	Path          string
	Requirement   Requirement
	AnonymousOnly bool
}

// Routes is the storefront's navigation table
var Routes = []Route{
	{Path: PathLanding, Requirement: RequireNone, AnonymousOnly: true},
	{Path: PathLogin, Requirement: RequireNone, AnonymousOnly: true},
	{Path: PathRegister, Requirement: RequireNone, AnonymousOnly: true},
	{Path: PathCatalog, Requirement: RequireAuthenticated},
	{Path: PathCart, Requirement: RequireAuthenticated},
	{Path: PathAdmin, Requirement: RequireAdmin},
}

// HomePath returns the role-appropriate home view
func HomePath(s session.Session) string {
	if s.IsAdmin() {
		return PathAdmin
	}
	return PathCatalog
}

// Outcome is a decision resolved against the route table, with the concrete
// path a redirect should land on.
type Outcome struct {
	Decision Decision
	Target   string
}

// Evaluate resolves a navigation attempt to a concrete outcome. Unknown paths
// fall back to the landing view, as the storefront's catch-all route does.
func Evaluate(s session.Session, path string) Outcome {
	route, ok := lookup(path)
	if !ok {
		return Outcome{Decision: RedirectHome, Target: redirectTargetHome(s)}
	}

	// Authenticated users never see the anonymous landing content.
	if route.AnonymousOnly && s.Authenticated {
		return Outcome{Decision: RedirectHome, Target: HomePath(s)}
	}

	switch Decide(s, route.Requirement) {
	case RedirectLogin:
		return Outcome{Decision: RedirectLogin, Target: PathLogin}
	case RedirectHome:
		return Outcome{Decision: RedirectHome, Target: redirectTargetHome(s)}
	default:
		return Outcome{Decision: Allow, Target: path}
	}
}

func lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

func redirectTargetHome(s session.Session) string {
	if !s.Authenticated {
		return PathLanding
	}
	return HomePath(s)
}
