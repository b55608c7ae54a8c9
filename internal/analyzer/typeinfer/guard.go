// Package typeinfer builds local-variable type maps and infers
// expression/method return types per language (§4.5), and owns the
// recursion guard the type-inference engines rely on to stop infinite
// mutual recursion on cyclic type chains.
package typeinfer

import "sync"

// Guard is the explicit, struct-owned equivalent of the original's
// recursion_guard decorator (decorators.py): a ContextVar-backed set
// keyed by a caller-supplied string, entries released on scope exit.
// Modeled here as a plain guarded set with an Enter/leave pair instead
// of a decorator, since Go has no ambient per-call-stack state.
type Guard struct {
	mu      sync.Mutex
	entered map[string]struct{}
}

// NewGuard creates an empty recursion guard.
func NewGuard() *Guard {
	return &Guard{entered: make(map[string]struct{})}
}

// Enter attempts to mark key as in-progress. It returns a release
// function that must be deferred, and ok=false if key is already
// in-progress (the caller should treat this as "no answer" rather
// than recursing further), per the original's "return None on
// reentry" behavior.
func (g *Guard) Enter(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, active := g.entered[key]; active {
		return func() {}, false
	}
	g.entered[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.entered, key)
		g.mu.Unlock()
	}, true
}
