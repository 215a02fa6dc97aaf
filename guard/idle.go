// ABOUTME: Idle sign-out timer for authenticated sessions
// ABOUTME: Every interaction rearms it; on expiry the session is cleared and the route reset to sign-in
package guard

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/bolha/clock"
)

// DefaultIdleTimeout signs the user out after fifteen quiet minutes.
const DefaultIdleTimeout = 15 * time.Minute

// SignOuter clears the session.
type SignOuter interface {
	SignOut() error
}

// Replacer swaps the current route.
type Replacer interface {
	Replace(path string)
}

// IdleTimer enforces the idle timeout. It does not wait for in-flight
// requests when it fires.
type IdleTimer struct {
	clock   clock.Clock
	timeout time.Duration
	session SignOuter
	nav     Replacer
	logger  *zap.Logger
	onFire  func()

	mu      sync.Mutex
	timer   clock.Timer
	gen     uint64
	stopped bool
}

// NewIdleTimer creates a stopped timer. Call Touch to arm it.
func NewIdleTimer(c clock.Clock, timeout time.Duration, session SignOuter, nav Replacer, logger *zap.Logger) *IdleTimer {
	if c == nil {
		c = clock.Real
	}
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdleTimer{clock: c, timeout: timeout, session: session, nav: nav, logger: logger}
}

// OnFire sets a callback run after an idle sign-out.
func (t *IdleTimer) OnFire(fn func()) {
	t.mu.Lock()
	t.onFire = fn
	t.mu.Unlock()
}

// Touch records an interaction and rearms the timer.
func (t *IdleTimer) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.timeout, func() { t.fire(gen) })
}

func (t *IdleTimer) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	fn := t.onFire
	t.mu.Unlock()

	t.logger.Info("idle timeout reached, signing out", zap.Duration("timeout", t.timeout))
	if err := t.session.SignOut(); err != nil {
		t.logger.Warn("sign-out after idle timeout failed", zap.Error(err))
	}
	t.nav.Replace(SignInPath)
	if fn != nil {
		fn()
	}
}

// Stop disarms the timer permanently.
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
