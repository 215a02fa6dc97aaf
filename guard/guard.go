// ABOUTME: Session gate for routes: private screens need a valid session
// ABOUTME: Redirects anonymous users to sign-in and signed-in users away from it
package guard

import "go.uber.org/zap"

// SessionChecker reports whether a usable session exists.
type SessionChecker interface {
	Valid() bool
}

// Guard decides where a navigation actually lands.
type Guard struct {
	session SessionChecker
	logger  *zap.Logger
}

// New creates a guard over session.
func New(session SessionChecker, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{session: session, logger: logger}
}

// Resolve returns the match for path after applying the session gate.
// The second value reports whether a redirect happened.
func (g *Guard) Resolve(path string) (Match, bool) {
	m := MatchPath(path)
	signedIn := g.session.Valid()

	if !m.Public() && !signedIn {
		g.logger.Debug("redirecting anonymous user to sign-in", zap.String("from", m.Path))
		return MatchPath(SignInPath), true
	}
	if m.Kind == KindSignIn && signedIn {
		return MatchPath(HomePath), true
	}
	return m, false
}
