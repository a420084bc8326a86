package catchup

import (
	"context"
	"sync"
)

// registration is a subscriber token and its callback. The context is
// cancelled when the registration is removed or replaced.
type registration struct {
	token       string
	cb          Callback
	ctx         context.Context
	cancel      context.CancelFunc
	activityKey string
}

// group is the dispatch group: the set of current registrations by token.
// It is mutated by subscribe and unsubscribe and only read by dispatch.
type group struct {
	mu   sync.RWMutex
	regs map[string]*registration
}

func newGroup() *group {
	return &group{regs: make(map[string]*registration)}
}

// add registers r and returns the registration it replaced, if any.
func (g *group) add(r *registration) *registration {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.regs[r.token]
	g.regs[r.token] = r
	return prev
}

// remove deletes the token's registration and returns it if it existed.
func (g *group) remove(token string) (*registration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.regs[token]
	if !ok {
		return nil, false
	}
	delete(g.regs, token)
	return r, true
}

// removeAll deletes and returns all registrations.
func (g *group) removeAll() []*registration {
	g.mu.Lock()
	defer g.mu.Unlock()

	var res []*registration
	for token, r := range g.regs {
		res = append(res, r)
		delete(g.regs, token)
	}
	return res
}

// isCurrent returns true if r is still the registration of its token.
func (g *group) isCurrent(r *registration) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.regs[r.token] == r
}

// snapshot returns the current registrations.
func (g *group) snapshot() []*registration {
	g.mu.RLock()
	defer g.mu.RUnlock()

	res := make([]*registration, 0, len(g.regs))
	for _, r := range g.regs {
		res = append(res, r)
	}
	return res
}

func (g *group) len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.regs)
}
