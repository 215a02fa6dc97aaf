// ABOUTME: Process-wide session holder: bearer token plus signed-in user
// ABOUTME: Replaced atomically on sign-in and sign-out, persisted, and exposed as an oauth2 token source
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/harperreed/bolha/models"
)

// Persisted keys.
const (
	TokenKey = "@bolha-dev:token"
	UserKey  = "@bolha-dev:user"
)

// ErrNoSession is returned by Token when nobody is signed in.
var ErrNoSession = errors.New("not signed in")

// Session is the signed-in identity. The zero value means signed out.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Empty reports whether nobody is signed in.
func (s Session) Empty() bool { return s.Token == "" }

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	SignIn(ctx context.Context, creds models.Credentials) (string, models.User, error)
}

// Context holds the current session. Reads never observe a partially
// written session: every change swaps the whole value.
type Context struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	cur atomic.Pointer[Session]

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Session)
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// WithNow overrides the clock used for token expiry checks.
func WithNow(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

// New creates a signed-out Context persisting into store.
func New(store Store, opts ...Option) *Context {
	c := &Context{
		store:     store,
		logger:    zap.NewNop(),
		now:       time.Now,
		listeners: make(map[int]func(Session)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cur.Store(&Session{})
	return c
}

// Current returns the session snapshot.
func (c *Context) Current() Session {
	return *c.cur.Load()
}

// Valid reports whether a token is present and, when it is a JWT carrying
// an expiry, not yet expired.
func (c *Context) Valid() bool {
	s := c.Current()
	if s.Empty() {
		return false
	}
	exp, ok := tokenExpiry(s.Token)
	if !ok {
		return true
	}
	return c.now().Before(exp)
}

func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Token implements oauth2.TokenSource.
func (c *Context) Token() (*oauth2.Token, error) {
	s := c.Current()
	if s.Empty() {
		return nil, ErrNoSession
	}
	return &oauth2.Token{AccessToken: s.Token, TokenType: "Bearer"}, nil
}

var _ oauth2.TokenSource = (*Context)(nil)

// SignIn authenticates, persists the token and user, then replaces the
// session in one step.
func (c *Context) SignIn(ctx context.Context, auth Authenticator, creds models.Credentials) (Session, error) {
	token, user, err := auth.SignIn(ctx, creds)
	if err != nil {
		return Session{}, err
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode user: %w", err)
	}
	if err := c.store.Set(TokenKey, []byte(token)); err != nil {
		return Session{}, fmt.Errorf("failed to persist token: %w", err)
	}
	if err := c.store.Set(UserKey, userJSON); err != nil {
		return Session{}, fmt.Errorf("failed to persist user: %w", err)
	}

	s := Session{Token: token, User: user}
	c.replace(s)
	c.logger.Info("signed in", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return s, nil
}

// SignOut removes both persisted keys and clears the session. The
// in-memory session is cleared even when the store fails.
func (c *Context) SignOut() error {
	var errs []error
	if err := c.store.Delete(TokenKey); err != nil && !errors.Is(err, ErrNotFound) {
		errs = append(errs, fmt.Errorf("failed to delete token: %w", err))
	}
	if err := c.store.Delete(UserKey); err != nil && !errors.Is(err, ErrNotFound) {
		errs = append(errs, fmt.Errorf("failed to delete user: %w", err))
	}
	c.replace(Session{})
	c.logger.Info("signed out")
	return errors.Join(errs...)
}

// UpdateUser persists a new identity for the current token.
func (c *Context) UpdateUser(user models.User) error {
	cur := c.Current()
	if cur.Empty() {
		return ErrNoSession
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := c.store.Set(UserKey, userJSON); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	c.replace(Session{Token: cur.Token, User: user})
	return nil
}

// Restore loads a persisted session. Both keys must be present; otherwise
// the session stays signed out.
func (c *Context) Restore() (Session, error) {
	token, err := c.store.Get(TokenKey)
	if errors.Is(err, ErrNotFound) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read token: %w", err)
	}
	userJSON, err := c.store.Get(UserKey)
	if errors.Is(err, ErrNotFound) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(userJSON, &user); err != nil {
		c.logger.Warn("discarding corrupt persisted user", zap.Error(err))
		_ = c.SignOut()
		return Session{}, nil
	}
	if len(token) == 0 {
		return Session{}, nil
	}

	s := Session{Token: string(token), User: user}
	c.replace(s)
	return s, nil
}

// OnChange registers fn to run after every replace. The returned func
// unregisters it.
func (c *Context) OnChange(fn func(Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Context) replace(s Session) {
	c.cur.Store(&s)

	c.mu.Lock()
	fns := make([]func(Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
