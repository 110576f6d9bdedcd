package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"window-counter/backend/internal/shared/apperr"
)

type mockProvider struct {
	tokenFunc func(ctx context.Context, token string) (Identity, error)
	anonFunc  func(ctx context.Context) (Identity, error)
	calls     int
}

func (m *mockProvider) SignInWithToken(ctx context.Context, token string) (Identity, error) {
	m.calls++
	if m.tokenFunc != nil {
		return m.tokenFunc(ctx, token)
	}
	return Identity{UserID: "token-user"}, nil
}

func (m *mockProvider) SignInAnonymously(ctx context.Context) (Identity, error) {
	m.calls++
	if m.anonFunc != nil {
		return m.anonFunc(ctx)
	}
	return Identity{UserID: "anon-user", Anonymous: true}, nil
}

// ---------------------------------------------------------------------------
// LocalProvider
// ---------------------------------------------------------------------------

func TestLocalProvider_AcceptsIssuedToken(t *testing.T) {
	p := NewLocalProvider("s3cret")
	id, err := p.SignInWithToken(context.Background(), IssueToken("s3cret", "estimator-7"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.UserID != "estimator-7" || id.Anonymous {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestLocalProvider_RejectsForeignToken(t *testing.T) {
	p := NewLocalProvider("s3cret")
	for _, token := range []string{
		IssueToken("other", "estimator-7"),
		"estimator-7",
		"estimator-7.zz",
		".abcd",
	} {
		if _, err := p.SignInWithToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestLocalProvider_AnonymousIDsDiffer(t *testing.T) {
	p := NewLocalProvider("")
	a, _ := p.SignInAnonymously(context.Background())
	b, _ := p.SignInAnonymously(context.Background())
	if a.UserID == "" || a.UserID == b.UserID {
		t.Errorf("expected distinct anonymous ids, got %q and %q", a.UserID, b.UserID)
	}
	if !a.Anonymous {
		t.Error("expected anonymous flag")
	}
}

// ---------------------------------------------------------------------------
// Gate
// ---------------------------------------------------------------------------

func TestGate_NotReadyBeforeResolve(t *testing.T) {
	g := NewGate()
	_, err := g.Current()
	if !apperr.Is(err, apperr.AuthNotReady) {
		t.Errorf("expected auth_not_ready, got %v", err)
	}
}

func TestGate_UsesTokenWhenGiven(t *testing.T) {
	p := &mockProvider{}
	g := NewGate()
	if err := g.Resolve(context.Background(), p, "tok"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	id, err := g.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if id.UserID != "token-user" {
		t.Errorf("expected token-user, got %q", id.UserID)
	}
}

func TestGate_FallsBackToAnonymous(t *testing.T) {
	g := NewGate()
	_ = g.Resolve(context.Background(), &mockProvider{}, "")
	id, err := g.Current()
	if err != nil || !id.Anonymous {
		t.Errorf("expected anonymous identity, got %+v err=%v", id, err)
	}
}

func TestGate_ResolvesOnlyOnce(t *testing.T) {
	p := &mockProvider{}
	g := NewGate()
	_ = g.Resolve(context.Background(), p, "")
	_ = g.Resolve(context.Background(), p, "tok")
	if p.calls != 1 {
		t.Errorf("expected 1 sign-in call, got %d", p.calls)
	}
}

func TestGate_ReadyEvenWhenSignInFails(t *testing.T) {
	p := &mockProvider{
		anonFunc: func(context.Context) (Identity, error) {
			return Identity{}, errors.New("provider unavailable")
		},
	}
	g := NewGate()
	if err := g.Resolve(context.Background(), p, ""); err == nil {
		t.Fatal("expected sign-in error")
	}
	if !g.Ready() {
		t.Error("expected gate to be ready after a failed attempt")
	}
	if _, err := g.Current(); !apperr.Is(err, apperr.AuthNotReady) {
		t.Errorf("expected auth_not_ready without identity, got %v", err)
	}
}

func TestGate_SubscribersSeeIdentity(t *testing.T) {
	g := NewGate()
	var mu sync.Mutex
	var seen []string
	g.Subscribe(func(id Identity, err error) {
		mu.Lock()
		seen = append(seen, "early:"+id.UserID)
		mu.Unlock()
	})
	_ = g.Resolve(context.Background(), &mockProvider{}, "tok")
	g.Subscribe(func(id Identity, err error) {
		mu.Lock()
		seen = append(seen, "late:"+id.UserID)
		mu.Unlock()
	})

	if len(seen) != 2 || seen[0] != "early:token-user" || seen[1] != "late:token-user" {
		t.Errorf("unexpected notifications %v", seen)
	}
}

func TestGate_SubscribersRunBeforeReady(t *testing.T) {
	g := NewGate()
	readyDuringCallback := true
	var gotErr error
	g.Subscribe(func(_ Identity, err error) {
		readyDuringCallback = g.Ready()
		gotErr = err
	})
	_ = g.Resolve(context.Background(), &mockProvider{anonFunc: func(context.Context) (Identity, error) {
		return Identity{}, errors.New("disabled")
	}}, "")

	if readyDuringCallback {
		t.Error("expected gate not ready while subscribers run")
	}
	if gotErr == nil {
		t.Error("expected sign-in error to reach subscriber")
	}
	if !g.Ready() {
		t.Error("expected gate ready after resolve")
	}
}

func TestGate_WaitHonoursContext(t *testing.T) {
	g := NewGate()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	_ = g.Resolve(context.Background(), &mockProvider{}, "")
	if err := g.Wait(context.Background()); err != nil {
		t.Errorf("expected nil after resolve, got %v", err)
	}
}
