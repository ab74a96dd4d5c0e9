// Package guard decides whether a console session may open a page.
package guard

import (
	"fmt"

	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/session"
)

// Well-known locations.
const (
	LoginPath   = "/login"
	DefaultPath = "/dashboard"
)

// Decision is the outcome of a guard check.
type Decision int

const (
	// Pending means the session is still settling; show a loading state
	// and ask again.
	Pending Decision = iota
	Allow
	RedirectToLogin
	RedirectToDefault
	NotFound
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToDefault:
		return "redirect_to_default"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// MarshalText renders the decision in JSON payloads.
func (d Decision) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText parses a decision rendered by MarshalText.
func (d *Decision) UnmarshalText(b []byte) error {
	for c := Pending; c <= NotFound; c++ {
		if c.String() == string(b) {
			*d = c
			return nil
		}
	}
	return fmt.Errorf("guard: unknown decision %q", b)
}

// Result carries the decision and, for redirects, where to go.  ReturnTo is
// the originally requested location on a login redirect.
type Result struct {
	Decision Decision `json:"decision"`
	Location string   `json:"location,omitempty"`
	ReturnTo string   `json:"returnTo,omitempty"`
}

// Viewer is the part of a session the guard looks at.
type Viewer interface {
	State() session.State
	User() (model.User, bool)
}

// Check gates a page that may require the admin role.  requested is the
// location being opened, remembered so login can send the user back.
func Check(v Viewer, requiresAdmin bool, requested string) Result {
	if v.State().Busy() {
		return Result{Decision: Pending}
	}
	u, ok := v.User()
	if !ok || v.State() != session.Authenticated {
		return Result{Decision: RedirectToLogin, Location: LoginPath, ReturnTo: requested}
	}
	if requiresAdmin && !u.IsAdmin() {
		return Result{Decision: RedirectToDefault, Location: DefaultPath}
	}
	return Result{Decision: Allow}
}

// Navigate resolves path against the route table and checks it.
func Navigate(v Viewer, path string) Result {
	r, ok := Match(path)
	if !ok {
		return Result{Decision: NotFound}
	}
	if r.Redirect != "" {
		return Result{Decision: RedirectToDefault, Location: r.Redirect}
	}
	if r.Public {
		return Result{Decision: Allow}
	}
	return Check(v, r.RequiresAdmin, path)
}

// AfterLogin picks where to send a user who just logged in: returnTo when it
// names a page of the console the user may open, fallback otherwise.
func AfterLogin(v Viewer, returnTo, fallback string) string {
	if returnTo == "" || !internal(returnTo) {
		return fallback
	}
	r, ok := Match(returnTo)
	if !ok || r.Public || r.Redirect != "" {
		return fallback
	}
	if Check(v, r.RequiresAdmin, returnTo).Decision != Allow {
		return fallback
	}
	return returnTo
}

// internal rejects absolute and protocol-relative URLs.
func internal(p string) bool {
	return len(p) > 0 && p[0] == '/' && (len(p) == 1 || (p[1] != '/' && p[1] != '\\'))
}
