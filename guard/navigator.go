// ABOUTME: In-process navigator with a history stack and route-change listeners
// ABOUTME: Replaces the browser router for the terminal console
package guard

import "sync"

// Navigator holds the current route and its history.
type Navigator struct {
	mu        sync.Mutex
	history   []string
	listeners []func(string)
}

// NewNavigator starts at path.
func NewNavigator(path string) *Navigator {
	return &Navigator{history: []string{path}}
}

// Current returns the current path.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history[len(n.history)-1]
}

// Push navigates to path, keeping the previous one in history.
func (n *Navigator) Push(path string) {
	n.mu.Lock()
	n.history = append(n.history, path)
	n.mu.Unlock()
	n.emit(path)
}

// Replace swaps the current path without growing history.
func (n *Navigator) Replace(path string) {
	n.mu.Lock()
	n.history[len(n.history)-1] = path
	n.mu.Unlock()
	n.emit(path)
}

// Back returns to the previous path. It reports false at the root.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	if len(n.history) < 2 {
		n.mu.Unlock()
		return false
	}
	n.history = n.history[:len(n.history)-1]
	path := n.history[len(n.history)-1]
	n.mu.Unlock()
	n.emit(path)
	return true
}

// Reset clears history and starts over at path.
func (n *Navigator) Reset(path string) {
	n.mu.Lock()
	n.history = []string{path}
	n.mu.Unlock()
	n.emit(path)
}

// Listen registers fn for every route change.
func (n *Navigator) Listen(fn func(path string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

func (n *Navigator) emit(path string) {
	n.mu.Lock()
	fns := append([]func(string){}, n.listeners...)
	n.mu.Unlock()
	for _, fn := range fns {
		fn(path)
	}
}
