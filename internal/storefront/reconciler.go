// Package storefront keeps per-profile ledgers consistent with the shared catalog.
package storefront

import (
	"context"
	"fmt"

	"github.com/angelmondragon/aether-storefront/internal/cart"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/internal/profile"
	"github.com/angelmondragon/aether-storefront/internal/wishlist"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

// CatalogReader returns the catalog snapshot currently in effect.
type CatalogReader interface {
	Snapshot() *catalog.Snapshot
}

// Report is the payload of catalog.reconciled.
type Report struct {
	Generation       string   `json:"generation"`
	RemovedCart      []string `json:"removed_cart"`
	RemovedWishlist  []string `json:"removed_wishlist"`
	RemovedFavorites []string `json:"removed_favorites"`
}

func (r Report) Changed() bool {
	return len(r.RemovedCart) > 0 || len(r.RemovedWishlist) > 0 || len(r.RemovedFavorites) > 0
}

type ReconcilerParams struct {
	Catalog  CatalogReader
	Cart     cart.Service
	Saved    wishlist.Service
	Store    kv.Store
	Locks    *profile.Locks
	Registry *profile.Registry
	Events   events.Publisher
	Logger   *logger.Logger
}

// Reconciler prunes ledgers after a catalog swap: eagerly for profiles seen since boot,
// lazily for any other profile on its next request.
type Reconciler struct {
	catalog  CatalogReader
	cart     cart.Service
	saved    wishlist.Service
	store    kv.Store
	locks    *profile.Locks
	registry *profile.Registry
	events   events.Publisher
	logg     *logger.Logger
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	switch {
	case params.Catalog == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog reader is required")
	case params.Cart == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart service is required")
	case params.Saved == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist service is required")
	case params.Store == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	case params.Locks == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile locks are required")
	case params.Registry == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile registry is required")
	}
	if params.Events == nil {
		params.Events = events.Discard
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Reconciler{
		catalog:  params.Catalog,
		cart:     params.Cart,
		saved:    params.Saved,
		store:    params.Store,
		locks:    params.Locks,
		registry: params.Registry,
		events:   params.Events,
		logg:     params.Logger,
	}, nil
}

// Generation identifies a snapshot across restarts; versions alone restart at 1.
func Generation(snap *catalog.Snapshot) string {
	return fmt.Sprintf("%d-%d", snap.Version, snap.SyncedAt.UnixNano())
}

// HandleSynced is subscribed to catalog.synced. Each active profile is reconciled under its lock.
func (r *Reconciler) HandleSynced(ctx context.Context, _ events.Event) {
	snap := r.catalog.Snapshot()
	for _, id := range r.registry.Active() {
		pctx := r.logg.WithProfileID(profile.WithID(ctx, id), id)
		err := r.locks.Do(id, func() error {
			_, err := r.reconcile(pctx, snap)
			return err
		})
		if err != nil {
			r.logg.Error(pctx, "profile reconciliation failed", err)
		}
	}
}

// EnsureCurrent reconciles the profile in ctx when it last saw an older catalog.
// The caller must hold the profile lock.
func (r *Reconciler) EnsureCurrent(ctx context.Context) (Report, error) {
	snap := r.catalog.Snapshot()
	if snap.Version == 0 {
		return Report{}, nil
	}
	var seen string
	if _, err := kv.GetJSON(ctx, r.store, kv.KeyCatalogVersion, &seen); err != nil {
		return Report{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog version")
	}
	if seen == Generation(snap) {
		return Report{Generation: seen}, nil
	}
	return r.reconcile(ctx, snap)
}

func (r *Reconciler) reconcile(ctx context.Context, snap *catalog.Snapshot) (Report, error) {
	if snap.Version == 0 {
		return Report{}, nil
	}
	report := Report{Generation: Generation(snap)}

	removedLines, err := r.cart.Validate(ctx, snap)
	if err != nil {
		return Report{}, err
	}
	for _, l := range removedLines {
		report.RemovedCart = append(report.RemovedCart, l.ProductID)
	}
	removedSaved, err := r.saved.Validate(ctx, snap)
	if err != nil {
		return Report{}, err
	}
	report.RemovedWishlist = removedSaved.Wishlist
	report.RemovedFavorites = removedSaved.Favorites

	if err := kv.SetJSON(ctx, r.store, kv.KeyCatalogVersion, report.Generation); err != nil {
		return Report{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save catalog version")
	}
	if report.Changed() {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"removed_cart":      len(report.RemovedCart),
			"removed_wishlist":  len(report.RemovedWishlist),
			"removed_favorites": len(report.RemovedFavorites),
		}), "profile reconciled with catalog")
		r.events.Publish(ctx, events.TypeCatalogReconciled, report)
	}
	return report, nil
}
