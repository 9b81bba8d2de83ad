// Package guard gates protected views behind an authenticated session.
package guard

import (
	"context"

	"github.com/and161185/appealkit/internal/model"
)

// Well-known view paths.
const (
	PathLogin      = "/login"
	PathCaseIntake = "/cases/new"
	PathDashboard  = "/dashboard"
	PathAdmin      = "/admin"
	PathPricing    = "/pricing"
)

// Session is what the guard needs from the session store.
type Session interface {
	Ready() <-chan struct{}
	IsAuthenticated() bool
}

// Destination is a view path plus the state needed to re-enter it.
type Destination struct {
	Path  string
	State map[string]string
}

// Decision is the outcome of Resolve. When Allowed is false the caller
// should show Redirect; From is where to return after login.
type Decision struct {
	Allowed  bool
	Redirect Destination
	From     Destination
}

// Guard decides access to protected destinations.
type Guard struct{ sess Session }

// New constructs a guard over sess.
func New(sess Session) *Guard { return &Guard{sess: sess} }

// Resolve waits for the session bootstrap, then allows dest or redirects to
// login remembering dest. It returns ctx.Err() if ctx ends first.
func (g *Guard) Resolve(ctx context.Context, dest Destination) (Decision, error) {
	select {
	case <-g.sess.Ready():
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
	if g.sess.IsAuthenticated() {
		return Decision{Allowed: true}, nil
	}
	return Decision{Redirect: Destination{Path: PathLogin}, From: clone(dest)}, nil
}

// AfterLogin returns where a successful login should land.
func AfterLogin(from *Destination) Destination {
	if from == nil || from.Path == "" {
		return Destination{Path: PathCaseIntake}
	}
	return clone(*from)
}

// HomeFor picks the landing view for a freshly verified user.
func HomeFor(u model.User) string {
	if u.IsAdmin() {
		return PathAdmin
	}
	return PathDashboard
}

func clone(d Destination) Destination {
	out := Destination{Path: d.Path}
	if len(d.State) > 0 {
		out.State = make(map[string]string, len(d.State))
		for k, v := range d.State {
			out.State[k] = v
		}
	}
	return out
}
