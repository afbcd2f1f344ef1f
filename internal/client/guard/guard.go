// Package guard decides whether a view may be shown for the current
// session, and which views each role may reach.
//
// Decide is a pure function of a session snapshot and the access a route
// requires. It keeps no memory between calls; callers evaluate it on every
// navigation.
package guard

import (
	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/dmitrijs2005/certportal/internal/client/session"
)

// Access is the level a route requires.
type Access int

const (
	AccessPublic Access = iota
	AccessAuthenticated
	AccessAdminOnly
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessAuthenticated:
		return "authenticated"
	case AccessAdminOnly:
		return "admin"
	default:
		return "unknown"
	}
}

// Outcome is the guard's verdict.
type Outcome int

const (
	// OutcomeLoading: the session is still bootstrapping; show a neutral
	// indicator and decide later.
	OutcomeLoading Outcome = iota
	OutcomeRedirectLogin
	OutcomeRedirectDashboard
	OutcomeRender
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirectLogin:
		return "redirect-login"
	case OutcomeRedirectDashboard:
		return "redirect-dashboard"
	case OutcomeRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decision is an Outcome plus, for redirects, where to go. Redirects
// replace the current history entry.
type Decision struct {
	Outcome Outcome
	Target  string
	Replace bool
}

// Decide applies the access table:
//
//	loading                          -> loading
//	no user                          -> redirect to /login
//	admin route, role is not admin   -> redirect to /dashboard
//	otherwise                        -> render
//
// Public routes always render.
func Decide(snap session.Snapshot, required Access) Decision {
	if required == AccessPublic {
		return Decision{Outcome: OutcomeRender}
	}
	if snap.Loading {
		return Decision{Outcome: OutcomeLoading}
	}
	if snap.User == nil {
		return Decision{Outcome: OutcomeRedirectLogin, Target: PathLogin, Replace: true}
	}
	if !Allows(snap.User.Role, required) {
		return Decision{Outcome: OutcomeRedirectDashboard, Target: PathDashboard, Replace: true}
	}
	return Decision{Outcome: OutcomeRender}
}

// Allows reports whether an authenticated user with role may enter a route
// requiring access. Admin includes standard access.
func Allows(role models.Role, required Access) bool {
	switch required {
	case AccessPublic, AccessAuthenticated:
		return true
	case AccessAdminOnly:
		return role == models.RoleAdmin
	default:
		return false
	}
}
