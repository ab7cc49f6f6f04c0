// Package screens models the client's top-level views as a closed set.
package screens

import "strings"

// Screen identifies a top-level view.
type Screen int

const (
	NotFound Screen = iota
	Login
	Signup
	DailyLog
	Decisions
	Analytics
	Insights
	About
)

// All lists every routable screen.
var All = []Screen{Login, Signup, DailyLog, Decisions, Analytics, Insights, About}

// Navigation is the menu shown to signed-in users, in order.
var Navigation = []Screen{DailyLog, Decisions, Analytics, Insights}

// Cases holds one handler per screen. Match requires all of them.
type Cases[T any] struct {
	NotFound  func() T
	Login     func() T
	Signup    func() T
	DailyLog  func() T
	Decisions func() T
	Analytics func() T
	Insights  func() T
	About     func() T
}

// Match dispatches s to its case.
func Match[T any](s Screen, c Cases[T]) T {
	switch s {
	case Login:
		return c.Login()
	case Signup:
		return c.Signup()
	case DailyLog:
		return c.DailyLog()
	case Decisions:
		return c.Decisions()
	case Analytics:
		return c.Analytics()
	case Insights:
		return c.Insights()
	case About:
		return c.About()
	default:
		return c.NotFound()
	}
}

func (s Screen) String() string {
	return Match(s, Cases[string]{
		NotFound:  func() string { return "not-found" },
		Login:     func() string { return "login" },
		Signup:    func() string { return "signup" },
		DailyLog:  func() string { return "daily-log" },
		Decisions: func() string { return "decisions" },
		Analytics: func() string { return "analytics" },
		Insights:  func() string { return "insights" },
		About:     func() string { return "about" },
	})
}

// Path is the URL path the screen is served at.
func (s Screen) Path() string {
	return Match(s, Cases[string]{
		NotFound:  func() string { return "" },
		Login:     func() string { return "/login" },
		Signup:    func() string { return "/signup" },
		DailyLog:  func() string { return "/" },
		Decisions: func() string { return "/decisions" },
		Analytics: func() string { return "/analytics" },
		Insights:  func() string { return "/insights" },
		About:     func() string { return "/about" },
	})
}

func (s Screen) Title() string {
	return Match(s, Cases[string]{
		NotFound:  func() string { return "Not Found" },
		Login:     func() string { return "Log In" },
		Signup:    func() string { return "Sign Up" },
		DailyLog:  func() string { return "Daily Log" },
		Decisions: func() string { return "Decisions" },
		Analytics: func() string { return "Analytics" },
		Insights:  func() string { return "Insights" },
		About:     func() string { return "About" },
	})
}

// Public reports whether the screen is reachable without a session.
func (s Screen) Public() bool {
	yes := func() bool { return true }
	no := func() bool { return false }
	return Match(s, Cases[bool]{
		NotFound:  yes,
		Login:     yes,
		Signup:    yes,
		DailyLog:  no,
		Decisions: no,
		Analytics: no,
		Insights:  no,
		About:     no,
	})
}

// Resolve maps a URL path to its screen.
func Resolve(path string) Screen {
	path = "/" + strings.Trim(path, "/")
	for _, s := range All {
		if s.Path() == path {
			return s
		}
	}
	return NotFound
}

// Decision is the outcome of gating a screen.
type Decision struct {
	Screen   Screen
	Allowed  bool
	Redirect string
}

// Gate decides whether a visitor may see the screen at path.
func Gate(path string, authenticated bool) Decision {
	s := Resolve(path)
	if !s.Public() && !authenticated {
		return Decision{Screen: s, Redirect: Login.Path()}
	}
	if authenticated && (s == Login || s == Signup) {
		return Decision{Screen: s, Redirect: DailyLog.Path()}
	}
	return Decision{Screen: s, Allowed: true}
}
