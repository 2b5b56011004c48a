package access

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestDecide_Table(t *testing.T) {
	anon := State{}
	fresh := State{Authenticated: true}
	done := State{Authenticated: true, OnboardingComplete: true}

	tests := []struct {
		name  string
		state State
		class RouteClass
		want  Outcome
	}{
		{"anon protected", anon, ProtectedRoute, RedirectLogin},
		{"anon onboarding", anon, OnboardingRoute, RedirectLogin},
		{"anon auth", anon, AuthRoute, Continue},
		{"anon public", anon, PublicRoute, Continue},
		{"anon ignores stale flag", State{OnboardingComplete: true}, ProtectedRoute, RedirectLogin},
		{"fresh auth", fresh, AuthRoute, RedirectApp},
		{"fresh onboarding", fresh, OnboardingRoute, Continue},
		{"fresh protected", fresh, ProtectedRoute, RedirectOnboarding},
		{"fresh public", fresh, PublicRoute, RedirectOnboarding},
		{"done auth", done, AuthRoute, RedirectApp},
		{"done onboarding", done, OnboardingRoute, RedirectApp},
		{"done protected", done, ProtectedRoute, Continue},
		{"done public", done, PublicRoute, Continue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.class))
		})
	}
}

func TestDecide_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	classGen := gen.IntRange(int(PublicRoute), int(ProtectedRoute)).Map(func(i int) RouteClass {
		return RouteClass(i)
	})

	properties.Property("unauthenticated callers are never sent to onboarding or the app", prop.ForAll(
		func(complete bool, class RouteClass) bool {
			o := Decide(State{OnboardingComplete: complete}, class)
			return o == Continue || o == RedirectLogin
		},
		gen.Bool(), classGen,
	))

	properties.Property("authenticated callers are never sent to login", prop.ForAll(
		func(complete bool, class RouteClass) bool {
			return Decide(State{Authenticated: true, OnboardingComplete: complete}, class) != RedirectLogin
		},
		gen.Bool(), classGen,
	))

	properties.Property("incomplete onboarding only continues on the onboarding route", prop.ForAll(
		func(class RouteClass) bool {
			o := Decide(State{Authenticated: true}, class)
			return (o == Continue) == (class == OnboardingRoute)
		},
		classGen,
	))

	properties.Property("following redirects reaches Continue within two hops", prop.ForAll(
		func(auth, complete bool, class RouteClass) bool {
			s := State{Authenticated: auth, OnboardingComplete: complete}
			for hop := 0; hop <= 2; hop++ {
				switch Decide(s, class) {
				case Continue:
					return true
				case RedirectLogin:
					class = AuthRoute
				case RedirectOnboarding:
					class = OnboardingRoute
				case RedirectApp:
					class = ProtectedRoute
				}
			}
			return false
		},
		gen.Bool(), gen.Bool(), classGen,
	))

	properties.TestingRun(t)
}

func testRoutes() RouteTable {
	return RouteTable{
		Auth:       []string{"/login", "/signup", "/register"},
		Onboarding: []string{"/onboarding"},
		Protected:  []string{"/dashboard", "/profile", "/settings/"},
	}
}

func TestRouteTable_Classify(t *testing.T) {
	rt := testRoutes()

	tests := []struct {
		path string
		want RouteClass
	}{
		{"/login", AuthRoute},
		{"/register", AuthRoute},
		{"/onboarding", OnboardingRoute},
		{"/onboarding/step/2", OnboardingRoute},
		{"/dashboard", ProtectedRoute},
		{"/profile/edit", ProtectedRoute},
		{"/settings", ProtectedRoute},
		{"/settings/privacy", ProtectedRoute},
		{"/profiles", PublicRoute},
		{"/", PublicRoute},
		{"/about", PublicRoute},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, rt.Classify(tt.path))
		})
	}
}

func TestRouter_Route(t *testing.T) {
	r := &Router{
		Routes:  testRoutes(),
		Targets: Targets{Login: "/login", Onboarding: "/onboarding", App: "/dashboard"},
	}

	o, loc := r.Route(State{}, "/profile/edit")
	assert.Equal(t, RedirectLogin, o)
	assert.Equal(t, "/login?callbackUrl=%2Fprofile%2Fedit", loc)

	o, loc = r.Route(State{Authenticated: true}, "/dashboard")
	assert.Equal(t, RedirectOnboarding, o)
	assert.Equal(t, "/onboarding", loc)

	o, loc = r.Route(State{Authenticated: true, OnboardingComplete: true}, "/onboarding")
	assert.Equal(t, RedirectApp, o)
	assert.Equal(t, "/dashboard", loc)

	o, loc = r.Route(State{Authenticated: true, OnboardingComplete: true}, "/dashboard")
	assert.Equal(t, Continue, o)
	assert.Empty(t, loc)
}

func TestOutcomeAndClassStrings(t *testing.T) {
	assert.Equal(t, "redirect_onboarding", RedirectOnboarding.String())
	assert.Equal(t, "protected", ProtectedRoute.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
