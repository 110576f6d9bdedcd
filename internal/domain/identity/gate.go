package identity

import (
	"context"
	"sync"

	"window-counter/backend/internal/shared/apperr"
)

// Gate resolves the visitor's identity exactly once. It becomes ready after
// the first sign-in attempt whether that attempt succeeded or not.
type Gate struct {
	once  sync.Once
	ready chan struct{}

	mu       sync.RWMutex
	current  Identity
	err      error
	resolved bool
	subs     []func(Identity, error)
}

func NewGate() *Gate {
	return &Gate{ready: make(chan struct{})}
}

// Resolve signs in with token when one is given, anonymously otherwise.
// Only the first call does anything; later calls return the first result.
// Subscribers hear the outcome before the gate reports ready.
func (g *Gate) Resolve(ctx context.Context, p Provider, token string) error {
	g.once.Do(func() {
		var (
			id  Identity
			err error
		)
		if token != "" {
			id, err = p.SignInWithToken(ctx, token)
		} else {
			id, err = p.SignInAnonymously(ctx)
		}

		g.mu.Lock()
		g.current, g.err = id, err
		g.resolved = true
		subs := g.subs
		g.subs = nil
		g.mu.Unlock()

		for _, fn := range subs {
			fn(id, err)
		}
		close(g.ready)
	})
	return g.Err()
}

// Subscribe registers fn for the sign-in outcome. If sign-in already
// finished, fn is called right away.
func (g *Gate) Subscribe(fn func(Identity, error)) {
	g.mu.Lock()
	if !g.resolved {
		g.subs = append(g.subs, fn)
		g.mu.Unlock()
		return
	}
	id, err := g.current, g.err
	g.mu.Unlock()
	fn(id, err)
}

func (g *Gate) Ready() bool {
	select {
	case <-g.ready:
		return true
	default:
		return false
	}
}

func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}

// Current returns the signed-in identity, or an auth-not-ready error while
// the gate has not fired or sign-in produced no identity.
func (g *Gate) Current() (Identity, error) {
	if !g.Ready() {
		return Identity{}, apperr.AuthNotReadyErr("Please wait for authentication to complete.")
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current.UserID == "" {
		return Identity{}, apperr.AuthNotReadyErr("User not authenticated. Please try again.")
	}
	return g.current, nil
}
