package storefront

import (
	"time"

	"github.com/angelmondragon/aether-storefront/internal/auth"
	"github.com/angelmondragon/aether-storefront/internal/cart"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/checkout"
	"github.com/angelmondragon/aether-storefront/internal/coupons"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/internal/history"
	"github.com/angelmondragon/aether-storefront/internal/loyalty"
	"github.com/angelmondragon/aether-storefront/internal/orders"
	"github.com/angelmondragon/aether-storefront/internal/profile"
	"github.com/angelmondragon/aether-storefront/internal/wishlist"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/angelmondragon/aether-storefront/pkg/metrics"
)

// Params carries the shared infrastructure the storefront core is built on.
type Params struct {
	Store   kv.Store
	Catalog *catalog.Store
	Bus     *events.Bus
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

// Services is the wired storefront core. Every profile-scoped service reads the profile from ctx.
type Services struct {
	Store      kv.Store
	Catalog    *catalog.Store
	Auth       auth.Service
	Coupons    coupons.Service
	Loyalty    loyalty.Service
	Cart       cart.Service
	Saved      wishlist.Service
	Orders     orders.Service
	Checkout   checkout.Service
	History    history.Service
	Reconciler *Reconciler
	Locks      *profile.Locks
	Registry   *profile.Registry
	Bus        *events.Bus
}

// New wires the services and subscribes the reconciler to catalog.synced.
func New(p Params) (*Services, error) {
	if p.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if p.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog store is required")
	}
	if p.Bus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event bus is required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}

	scoped := kv.Scoped(p.Store)
	s := &Services{
		Store:    scoped,
		Catalog:  p.Catalog,
		Locks:    profile.NewLocks(),
		Registry: profile.NewRegistry(),
		Bus:      p.Bus,
	}

	var err error
	if s.Coupons, err = coupons.NewService(coupons.ServiceParams{Store: scoped, Events: p.Bus}); err != nil {
		return nil, err
	}
	if s.Loyalty, err = loyalty.NewService(loyalty.ServiceParams{
		Store: scoped, Coupons: s.Coupons, Events: p.Bus, Logger: p.Logger, Now: p.Now,
	}); err != nil {
		return nil, err
	}
	if s.Auth, err = auth.NewService(auth.ServiceParams{
		Store: scoped, Coupons: s.Coupons, Points: s.Loyalty, Events: p.Bus, Logger: p.Logger,
	}); err != nil {
		return nil, err
	}
	if s.Cart, err = cart.NewService(cart.ServiceParams{
		Repository: cart.NewRepository(scoped), Catalog: p.Catalog, Gate: s.Auth, Events: p.Bus, Logger: p.Logger,
	}); err != nil {
		return nil, err
	}
	if s.Saved, err = wishlist.NewService(wishlist.ServiceParams{
		Repository: wishlist.NewRepository(scoped), Catalog: p.Catalog, Gate: s.Auth, Events: p.Bus, Logger: p.Logger,
	}); err != nil {
		return nil, err
	}
	if s.Orders, err = orders.NewService(orders.ServiceParams{Repository: orders.NewRepository(scoped), Events: p.Bus}); err != nil {
		return nil, err
	}
	if s.History, err = history.NewService(scoped); err != nil {
		return nil, err
	}
	if s.Checkout, err = checkout.NewService(checkout.ServiceParams{
		Cart:    s.Cart,
		Catalog: p.Catalog,
		Coupons: s.Coupons,
		Loyalty: s.Loyalty,
		Orders:  s.Orders,
		Gate:    s.Auth,
		Events:  p.Bus,
		Metrics: p.Metrics,
		Logger:  p.Logger,
		Now:     p.Now,
	}); err != nil {
		return nil, err
	}
	if s.Reconciler, err = NewReconciler(ReconcilerParams{
		Catalog:  p.Catalog,
		Cart:     s.Cart,
		Saved:    s.Saved,
		Store:    scoped,
		Locks:    s.Locks,
		Registry: s.Registry,
		Events:   p.Bus,
		Logger:   p.Logger,
	}); err != nil {
		return nil, err
	}
	p.Bus.Subscribe(s.Reconciler.HandleSynced, events.TypeCatalogSynced)
	return s, nil
}
