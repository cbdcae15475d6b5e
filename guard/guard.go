// Package guard decides whether navigation may proceed. Every decision is a
// pure function of a session snapshot and the attempted destination.
package guard

import (
	"net/url"
	"strings"

	"github.com/hazfactura/console/session"
)

// Named locations the guard redirects to
const (
	LocationSignIn       = "/sign-in"
	LocationAccountSetup = "/configurar-cuenta"
	LocationHome         = "/"

	// RedirectParam carries the originally intended location to sign-in
	RedirectParam = "redirect"
)

// State is the operator's position in the session lifecycle
type State string

const (
	StateAnonymous                      State = "anonymous"
	StateAuthenticatedIncompleteProfile State = "authenticated_incomplete_profile"
	StateAuthenticatedComplete          State = "authenticated_complete"
)

// Decision is the outcome of a guard evaluation. Redirect is empty when
// navigation is allowed.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirectTo(location string) Decision {
	return Decision{Redirect: location}
}

// Classify maps a snapshot onto the lifecycle states
func Classify(snap session.Snapshot) State {
	if snap.AccessToken == "" || snap.User == nil {
		return StateAnonymous
	}
	if needsAccountSetup(snap) {
		return StateAuthenticatedIncompleteProfile
	}
	return StateAuthenticatedComplete
}

// Protected guards every area that needs a signed-in operator, in order:
// no session goes to sign-in carrying the destination, an admin without a
// business goes to account setup, anything else proceeds.
func Protected(snap session.Snapshot, destination string) Decision {
	if snap.AccessToken == "" || snap.User == nil {
		return redirectTo(SignInLocation(destination))
	}
	if needsAccountSetup(snap) {
		return redirectTo(LocationAccountSetup)
	}
	return allow()
}

// Authenticated only requires a session, without the profile check. It
// guards the account setup flow itself.
func Authenticated(snap session.Snapshot, destination string) Decision {
	if snap.AccessToken == "" || snap.User == nil {
		return redirectTo(SignInLocation(destination))
	}
	return allow()
}

// AnonymousOnly guards account-creation entry points. Any token sends the
// operator home.
func AnonymousOnly(snap session.Snapshot) Decision {
	if snap.AccessToken != "" {
		return redirectTo(LocationHome)
	}
	return allow()
}

// SignInLocation builds the sign-in URL that returns to destination after
// success
func SignInLocation(destination string) string {
	if destination == "" {
		return LocationSignIn
	}
	q := url.Values{}
	q.Set(RedirectParam, destination)
	return LocationSignIn + "?" + q.Encode()
}

// SafeRedirect returns target when it is a local absolute path, otherwise
// home. It keeps the sign-in forward from leaving the console.
func SafeRedirect(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") {
		return LocationHome
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return LocationHome
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return LocationHome
	}
	if u.Path == LocationSignIn {
		return LocationHome
	}
	return target
}

func needsAccountSetup(snap session.Snapshot) bool {
	return !snap.User.HasBusiness() && snap.User.IsAdmin()
}
