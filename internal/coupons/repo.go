package coupons

import (
	"context"

	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
)

// Repository reads and writes the wallet documents of the profile in ctx.
type Repository struct {
	store kv.Store
}

func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Inventory(ctx context.Context) ([]Instance, error) {
	items := []Instance{}
	if _, err := kv.GetJSON(ctx, r.store, kv.KeyCoupons, &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon inventory")
	}
	return items, nil
}

func (r *Repository) SaveInventory(ctx context.Context, items []Instance) error {
	if err := kv.SetJSON(ctx, r.store, kv.KeyCoupons, items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save coupon inventory")
	}
	return nil
}

func (r *Repository) UsedCodes(ctx context.Context) ([]string, error) {
	codes := []string{}
	if _, err := kv.GetJSON(ctx, r.store, kv.KeyUsedCoupons, &codes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load used coupons")
	}
	return codes, nil
}

func (r *Repository) SaveUsedCodes(ctx context.Context, codes []string) error {
	if err := kv.SetJSON(ctx, r.store, kv.KeyUsedCoupons, codes); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save used coupons")
	}
	return nil
}
