// ABOUTME: Route table of the console: public auth screens, private home, profile and resource screens
// ABOUTME: Matches a path to its screen kind, resource, mode and record id
package guard

import (
	"strings"

	"github.com/harperreed/bolha/models"
)

// Public and fixed private paths.
const (
	SignInPath         = "/"
	SignUpPath         = "/signup"
	ForgotPasswordPath = "/forgot-password"
	ResetPasswordPath  = "/reset-password"
	HomePath           = "/home"
	ProfilePath        = "/profile"
)

// Kind is the screen a route renders.
type Kind int

const (
	KindNotFound Kind = iota
	KindSignIn
	KindSignUp
	KindForgotPassword
	KindResetPassword
	KindHome
	KindProfile
	KindList
	KindForm
)

// Mode distinguishes create from edit on form routes.
type Mode int

const (
	ModeNone Mode = iota
	ModeNew
	ModeEdit
)

// Match is a resolved route.
type Match struct {
	Path     string
	Kind     Kind
	Resource *models.Resource
	Mode     Mode
	ID       string
	Query    map[string]string
}

// Public reports whether the route is reachable without a session.
func (m Match) Public() bool {
	switch m.Kind {
	case KindSignIn, KindSignUp, KindForgotPassword, KindResetPassword:
		return true
	default:
		return false
	}
}

// MatchPath resolves a path. Unknown paths are not-found, which is private.
func MatchPath(path string) Match {
	path, query := splitQuery(path)
	if path == "" {
		path = SignInPath
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	m := Match{Path: path, Query: query}

	switch path {
	case SignInPath:
		m.Kind = KindSignIn
		return m
	case SignUpPath:
		m.Kind = KindSignUp
		return m
	case ForgotPasswordPath:
		m.Kind = KindForgotPassword
		return m
	case ResetPasswordPath:
		m.Kind = KindResetPassword
		return m
	case HomePath:
		m.Kind = KindHome
		return m
	case ProfilePath:
		m.Kind = KindProfile
		return m
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	res, ok := findByRoute("/" + parts[0])
	if !ok {
		return m
	}
	m.Resource = res

	switch {
	case len(parts) == 1:
		m.Kind = KindList
	case len(parts) == 2 && parts[1] == "new":
		m.Kind = KindForm
		m.Mode = ModeNew
	case len(parts) == 3 && parts[1] == "edit" && parts[2] != "":
		m.Kind = KindForm
		m.Mode = ModeEdit
		m.ID = parts[2]
	default:
		m.Resource = nil
	}
	return m
}

func findByRoute(route string) (*models.Resource, bool) {
	for _, r := range models.Resources() {
		if r.Route == route {
			return r, true
		}
	}
	return nil, false
}

func splitQuery(path string) (string, map[string]string) {
	i := strings.IndexByte(path, '?')
	if i < 0 {
		return path, nil
	}
	query := map[string]string{}
	for _, pair := range strings.Split(path[i+1:], "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		query[k] = v
	}
	return path[:i], query
}
