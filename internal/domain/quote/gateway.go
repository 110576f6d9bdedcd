package quote

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"window-counter/backend/internal/domain/identity"
	"window-counter/backend/internal/shared/apperr"
)

// ErrSaveInFlight is returned when Save is called while another save of the
// same gateway has not finished yet.
var ErrSaveInFlight = apperr.ValidationErr("A save is already in progress.")

const (
	msgWaitSave = "Please wait for authentication to complete before saving."
	msgWaitView = "Please wait for authentication to complete before viewing saved quotes."
	msgWait     = "Please wait for authentication to complete."
)

type IdentitySource interface {
	Current() (identity.Identity, error)
}

type GatewayConfig struct {
	AppID string
	// OwnerOnly restricts List to the caller's own quotes. Off by default:
	// the collection is shared and every user sees every saved quote.
	OwnerOnly bool
}

// Gateway moves editor snapshots to and from the quote collection on behalf
// of one workspace.
type Gateway struct {
	store      Store
	ids        IdentitySource
	collection string
	ownerOnly  bool
	log        *zap.Logger
	tracer     trace.Tracer

	saveGuard *semaphore.Weighted
	saving    atomic.Bool
	loading   atomic.Bool
}

func NewGateway(store Store, ids IdentitySource, cfg GatewayConfig, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		store:      store,
		ids:        ids,
		collection: CollectionPath(cfg.AppID),
		ownerOnly:  cfg.OwnerOnly,
		log:        log,
		tracer:     otel.Tracer("window-counter/backend/quote"),
		saveGuard:  semaphore.NewWeighted(1),
	}
}

func (g *Gateway) Collection() string { return g.collection }
func (g *Gateway) Saving() bool       { return g.saving.Load() }
func (g *Gateway) Loading() bool      { return g.loading.Load() }

func (g *Gateway) owner(msg string) (identity.Identity, error) {
	id, err := g.ids.Current()
	if err != nil {
		return identity.Identity{}, apperr.AuthNotReadyErr(msg)
	}
	return id, nil
}

// Save freezes items into a new quote document owned by the current identity.
func (g *Gateway) Save(ctx context.Context, name string, items []WindowType) (Quote, error) {
	id, err := g.owner(msgWaitSave)
	if err != nil {
		return Quote{}, err
	}
	name, err = ValidateQuoteName(name)
	if err != nil {
		return Quote{}, err
	}
	if !g.saveGuard.TryAcquire(1) {
		return Quote{}, ErrSaveInFlight
	}
	g.saving.Store(true)
	defer func() {
		g.saving.Store(false)
		g.saveGuard.Release(1)
	}()

	ctx, span := g.tracer.Start(ctx, "quote.save", trace.WithAttributes(
		attribute.String("quote.collection", g.collection),
		attribute.Int("quote.line_items", len(items)),
	))
	defer span.End()

	doc := Quote{
		Name:      name,
		LineItems: CloneItems(items),
		TotalCost: Total(items),
		OwnerID:   id.UserID,
	}
	saved, err := g.store.Create(ctx, g.collection, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		g.log.Error("quote save failed", zap.String("collection", g.collection), zap.Error(err))
		return Quote{}, apperr.SaveErr(err)
	}
	g.log.Info("quote saved",
		zap.String("quote_id", saved.ID),
		zap.String("owner_id", saved.OwnerID),
		zap.String("total_cost", saved.TotalCost.StringFixed(2)),
	)
	return saved, nil
}

// List returns saved quotes, newest first. A failed fetch returns no quotes.
func (g *Gateway) List(ctx context.Context) ([]Quote, error) {
	id, err := g.owner(msgWaitView)
	if err != nil {
		return nil, err
	}
	g.loading.Store(true)
	defer g.loading.Store(false)

	ctx, span := g.tracer.Start(ctx, "quote.list", trace.WithAttributes(
		attribute.String("quote.collection", g.collection),
		attribute.Bool("quote.owner_only", g.ownerOnly),
	))
	defer span.End()

	owner := ""
	if g.ownerOnly {
		owner = id.UserID
	}
	quotes, err := g.store.List(ctx, g.collection, owner)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		g.log.Error("quote list failed", zap.String("collection", g.collection), zap.Error(err))
		return nil, apperr.FetchErr(err)
	}
	SortNewestFirst(quotes)
	return quotes, nil
}

func (g *Gateway) Get(ctx context.Context, quoteID string) (Quote, error) {
	if _, err := g.owner(msgWait); err != nil {
		return Quote{}, err
	}
	q, err := g.store.Get(ctx, g.collection, quoteID)
	if errors.Is(err, ErrNotFound) {
		return Quote{}, apperr.NotFoundErr("Quote not found.")
	}
	if err != nil {
		g.log.Error("quote get failed", zap.String("quote_id", quoteID), zap.Error(err))
		return Quote{}, apperr.FetchErr(err)
	}
	return q, nil
}

func (g *Gateway) Delete(ctx context.Context, quoteID string) error {
	if _, err := g.owner(msgWait); err != nil {
		return err
	}
	ctx, span := g.tracer.Start(ctx, "quote.delete", trace.WithAttributes(
		attribute.String("quote.collection", g.collection),
		attribute.String("quote.id", quoteID),
	))
	defer span.End()

	err := g.store.Delete(ctx, g.collection, quoteID)
	if errors.Is(err, ErrNotFound) {
		g.log.Info("quote already gone", zap.String("quote_id", quoteID))
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		g.log.Error("quote delete failed", zap.String("quote_id", quoteID), zap.Error(err))
		return apperr.DeleteErr(err)
	}
	g.log.Info("quote deleted", zap.String("quote_id", quoteID))
	return nil
}

// SortNewestFirst orders quotes by save time, descending. Ties keep the
// store's order.
func SortNewestFirst(quotes []Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].SavedAt.After(quotes[j].SavedAt)
	})
}
