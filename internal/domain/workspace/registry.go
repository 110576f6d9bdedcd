package workspace

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"window-counter/backend/internal/domain/editor"
	"window-counter/backend/internal/domain/identity"
	"window-counter/backend/internal/domain/quote"
	"window-counter/backend/internal/infra/cache"
)

type Options struct {
	Store    quote.Store
	Provider identity.Provider
	Gateway  quote.GatewayConfig
	// BootstrapToken signs new workspaces in when the visitor brings no
	// token of their own.
	BootstrapToken string
	// Seed is the starting list of a new workspace. Nil means the default
	// window types.
	Seed  []quote.WindowType
	NewID func() string
	TTL   time.Duration
	Log   *zap.Logger
}

// Registry keeps open workspaces until they sit idle for the TTL.
type Registry struct {
	opts     Options
	sessions *cache.TTLCache[string, *Workspace]
}

func NewRegistry(opts Options) *Registry {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Seed == nil {
		opts.Seed = editor.DefaultWindowTypes()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Registry{opts: opts, sessions: cache.NewTTLCache[string, *Workspace]()}
}

// Open starts a workspace and begins signing it in. token, when set, takes
// precedence over the bootstrap token.
func (r *Registry) Open(ctx context.Context, token string) *Workspace {
	if token == "" {
		token = r.opts.BootstrapToken
	}
	gate := identity.NewGate()
	gw := quote.NewGateway(r.opts.Store, gate, r.opts.Gateway, r.opts.Log)
	ws := New(uuid.NewString(), editor.New(r.opts.NewID, r.opts.Seed), gate, gw, r.opts.Log)
	r.sessions.Set(ws.ID, ws, r.opts.TTL)

	go ws.authenticate(context.WithoutCancel(ctx), r.opts.Provider, token)
	r.opts.Log.Info("workspace opened", zap.String("workspace_id", ws.ID), zap.Bool("custom_token", token != ""))
	return ws
}

func (r *Registry) Get(id string) (*Workspace, bool) {
	return r.sessions.Get(id)
}

func (r *Registry) Close(id string) {
	r.sessions.Delete(id)
}

func (r *Registry) Len() int { return r.sessions.Len() }

// RunSweeper drops idle workspaces every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.sessions.Sweep(); n > 0 {
				r.opts.Log.Info("idle workspaces dropped", zap.Int("count", n))
			}
		}
	}
}
