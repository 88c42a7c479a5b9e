// Package guard decides whether a session may enter a screen. Guards are
// pure: they read a snapshot and return a Decision, never a side effect.
package guard

import (
	"github.com/estoque-app/estoque/pkg/domain"
	"github.com/estoque-app/estoque/pkg/session"
)

// DefaultLoginPath is where anonymous sessions are sent.
const DefaultLoginPath = "/login"

// Outcome is what the caller should render.
type Outcome int

const (
	// Loading means hydration is pending; show a neutral placeholder.
	Loading Outcome = iota
	// Redirect means go to Decision.RedirectTo, remembering From.
	Redirect
	// Denied means render a permission-denied view in place.
	Denied
	// Allow means render the protected screen.
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Denied:
		return "denied"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Decision is the result of a guard check. Required and Actual are only set
// on Denied, for display.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
	From       string
	Required   domain.RoleSet
	Actual     domain.RoleSet
}

// Guard checks a session against a screen at location.
type Guard interface {
	Check(snap session.Snapshot, location string) Decision
}

// Authenticated lets any signed-in session through.
type Authenticated struct {
	LoginPath string
}

// Check implements Guard.
func (g Authenticated) Check(snap session.Snapshot, location string) Decision {
	if snap.Loading() {
		return Decision{Outcome: Loading}
	}
	if snap.Status != session.StatusAuthenticated || snap.User == nil {
		to := g.LoginPath
		if to == "" {
			to = DefaultLoginPath
		}
		return Decision{Outcome: Redirect, RedirectTo: to, From: location}
	}
	return Decision{Outcome: Allow}
}

// RoleRestricted wraps Authenticated and then requires at least one role
// from Allow. An authenticated session without one is Denied, not
// redirected.
type RoleRestricted struct {
	LoginPath string
	Allow     domain.RoleSet
}

// RequireRoles builds a RoleRestricted guard. Names are normalized.
func RequireRoles(roles ...string) RoleRestricted {
	return RoleRestricted{Allow: domain.NewRoleSet(roles...)}
}

// Check implements Guard.
func (g RoleRestricted) Check(snap session.Snapshot, location string) Decision {
	if d := (Authenticated{LoginPath: g.LoginPath}).Check(snap, location); d.Outcome != Allow {
		return d
	}
	actual := snap.User.RoleSet()
	if actual.Intersects(g.Allow) {
		return Decision{Outcome: Allow}
	}
	return Decision{Outcome: Denied, Required: g.Allow, Actual: actual}
}

// Protect returns the guard for a screen: sign-in only when roles is
// empty, role-restricted otherwise.
func Protect(loginPath string, roles ...string) Guard {
	if len(roles) == 0 {
		return Authenticated{LoginPath: loginPath}
	}
	g := RequireRoles(roles...)
	g.LoginPath = loginPath
	return g
}
