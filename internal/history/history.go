// Package history tracks the recently viewed products of a profile.
package history

import (
	"context"
	"slices"

	"github.com/angelmondragon/aether-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
)

// MaxEntries bounds the list; the oldest entries fall off.
const MaxEntries = 10

type Service interface {
	Record(ctx context.Context, productID string) ([]string, error)
	List(ctx context.Context) ([]string, error)
	Resolve(ctx context.Context, snap *catalog.Snapshot) ([]catalog.Product, error)
	Clear(ctx context.Context) error
}

type service struct {
	store kv.Store
}

func NewService(store kv.Store) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	return &service{store: store}, nil
}

// Record moves productID to the front, most recent first.
func (s *service) Record(ctx context.Context, productID string) ([]string, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == productID })
	ids = append([]string{productID}, ids...)
	if len(ids) > MaxEntries {
		ids = ids[:MaxEntries]
	}
	if err := kv.SetJSON(ctx, s.store, kv.KeyRecentlyViewed, ids); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save recently viewed")
	}
	return ids, nil
}

func (s *service) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	if _, err := kv.GetJSON(ctx, s.store, kv.KeyRecentlyViewed, &ids); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recently viewed")
	}
	return ids, nil
}

// Resolve returns the products still in snap, in recency order.
func (s *service) Resolve(ctx context.Context, snap *catalog.Snapshot) ([]catalog.Product, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ByIDs(ids), nil
}

func (s *service) Clear(ctx context.Context) error {
	if err := s.store.Remove(ctx, kv.KeyRecentlyViewed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear recently viewed")
	}
	return nil
}
