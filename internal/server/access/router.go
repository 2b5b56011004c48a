// Package access decides, for every page navigation, whether the request
// continues or is redirected, based on the session snapshot and the class of
// the requested path.
package access

import (
	"net/url"
	"strings"
)

type Outcome int

const (
	Continue Outcome = iota
	RedirectLogin
	RedirectOnboarding
	RedirectApp
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case RedirectLogin:
		return "redirect_login"
	case RedirectOnboarding:
		return "redirect_onboarding"
	case RedirectApp:
		return "redirect_app"
	}
	return "unknown"
}

type RouteClass int

const (
	PublicRoute RouteClass = iota
	AuthRoute
	OnboardingRoute
	ProtectedRoute
)

func (c RouteClass) String() string {
	switch c {
	case PublicRoute:
		return "public"
	case AuthRoute:
		return "auth"
	case OnboardingRoute:
		return "onboarding"
	case ProtectedRoute:
		return "protected"
	}
	return "unknown"
}

// State is what the router knows about the caller. Authenticated is false
// whenever the session token is missing or fails verification.
type State struct {
	Authenticated      bool
	OnboardingComplete bool
}

// Decide applies the decision table top to bottom; the first match wins.
func Decide(s State, class RouteClass) Outcome {
	if !s.Authenticated {
		if class == ProtectedRoute || class == OnboardingRoute {
			return RedirectLogin
		}
		return Continue
	}

	if class == AuthRoute {
		return RedirectApp
	}

	if !s.OnboardingComplete {
		if class == OnboardingRoute {
			return Continue
		}
		return RedirectOnboarding
	}

	if class == OnboardingRoute {
		return RedirectApp
	}
	return Continue
}

// RouteTable classifies paths. A route matches its exact path and every
// sub-path, so /profile/edit is protected when /profile is.
type RouteTable struct {
	Auth       []string
	Onboarding []string
	Protected  []string
}

func (t RouteTable) Classify(path string) RouteClass {
	switch {
	case matchAny(t.Onboarding, path):
		return OnboardingRoute
	case matchAny(t.Auth, path):
		return AuthRoute
	case matchAny(t.Protected, path):
		return ProtectedRoute
	}
	return PublicRoute
}

func matchAny(routes []string, path string) bool {
	for _, r := range routes {
		if matchRoute(r, path) {
			return true
		}
	}
	return false
}

func matchRoute(route, path string) bool {
	route = strings.TrimSuffix(route, "/")
	if route == "" {
		return false
	}
	if path == route {
		return true
	}
	return strings.HasPrefix(path, route+"/")
}

// Targets are the redirect destinations.
type Targets struct {
	Login      string
	Onboarding string
	App        string
}

// Location returns where to send the caller for outcome o. The originally
// requested path is passed to the login page as callbackUrl.
func (t Targets) Location(o Outcome, requested string) string {
	switch o {
	case RedirectLogin:
		if requested == "" {
			return t.Login
		}
		return t.Login + "?callbackUrl=" + url.QueryEscape(requested)
	case RedirectOnboarding:
		return t.Onboarding
	case RedirectApp:
		return t.App
	}
	return ""
}

// Router bundles the route table and redirect targets.
type Router struct {
	Routes  RouteTable
	Targets Targets
}

// Route classifies path and decides. The returned location is empty for
// Continue.
func (r *Router) Route(s State, path string) (Outcome, string) {
	o := Decide(s, r.Routes.Classify(path))
	return o, r.Targets.Location(o, path)
}
