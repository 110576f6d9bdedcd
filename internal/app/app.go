package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"window-counter/backend/internal/app/config"
	apphttp "window-counter/backend/internal/app/http"
	"window-counter/backend/internal/app/http/handlers"
	"window-counter/backend/internal/app/logger"
	"window-counter/backend/internal/domain/identity"
	"window-counter/backend/internal/domain/quote"
	pdfgen "window-counter/backend/internal/domain/quote/pdf/gofpdf"
	"window-counter/backend/internal/domain/workspace"
	"window-counter/backend/internal/infra/assets"
	"window-counter/backend/internal/infra/db/memory"
	"window-counter/backend/internal/infra/db/postgres"
)

const (
	companyName   = "Window Counter"
	sweepInterval = time.Minute
)

// Run serves until ctx is cancelled, then shuts the server down.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, db, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	secret := cfg.IdentitySecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("IDENTITY_SECRET not set; issued tokens will not survive a restart")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return fmt.Errorf("snowflake: %w", err)
	}

	reg := workspace.NewRegistry(workspace.Options{
		Store:          store,
		Provider:       identity.NewLocalProvider(secret),
		Gateway:        quote.GatewayConfig{AppID: cfg.AppID, OwnerOnly: cfg.QuotesOwnerOnly},
		BootstrapToken: cfg.InitialAuthToken,
		NewID:          func() string { return node.Generate().String() },
		TTL:            cfg.SessionTTL,
		Log:            log,
	})

	cache, err := openAssets(ctx, cfg, log)
	if err != nil {
		return err
	}

	h := handlers.New(reg, db, pdfgen.New(companyName), log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apphttp.NewRouter(h, cache, cfg.CORSAllowOrigin, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("app_id", cfg.AppID))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return reg.RunSweeper(gctx, sweepInterval)
	})
	return g.Wait()
}

// openStore picks Postgres when a database url is configured and the
// in-memory store otherwise.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (quote.Store, handlers.Pinger, func(), error) {
	if cfg.Store.DatabaseURL == "" {
		log.Info("quote store: memory")
		s := memory.NewQuoteStore()
		return s, s, func() {}, nil
	}

	db, err := postgres.New(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("db schema: %w", err)
	}
	log.Info("quote store: postgres")
	return postgres.NewQuoteStore(db), db, db.Close, nil
}

// openAssets installs and activates the asset cache. A failed install is
// logged and requests then go straight to the origin.
func openAssets(ctx context.Context, cfg config.Config, log *zap.Logger) (*assets.Cache, error) {
	origin, err := assets.NewOrigin(ctx, assets.OriginConfig{
		Driver: cfg.AssetDriver,
		Dir:    cfg.AssetDir,
		S3: assets.S3Config{
			Region: cfg.S3Region,
			Bucket: cfg.S3Bucket,
			Prefix: cfg.S3Prefix,
		},
	})
	if err != nil {
		return nil, err
	}

	cache := assets.New(cfg.AssetCacheVersion, cfg.AssetPrecache, origin, assets.NewStorage(), log)
	if err := cache.Install(ctx); err != nil {
		log.Warn("asset cache install failed", zap.Error(err))
		return cache, nil
	}
	purged := cache.Activate()
	log.Info("asset cache active", zap.String("version", cache.Version()), zap.Strings("purged", purged))
	return cache, nil
}
