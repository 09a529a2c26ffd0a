package orders

import (
	"context"

	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
)

type repository struct {
	store kv.Store
}

// NewRepository builds an order history repository over the scoped store.
func NewRepository(store kv.Store) Repository {
	return &repository{store: store}
}

func (r *repository) Load(ctx context.Context) ([]Order, error) {
	history := []Order{}
	if _, err := kv.GetJSON(ctx, r.store, kv.KeyOrderHistory, &history); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	return history, nil
}

func (r *repository) Save(ctx context.Context, history []Order) error {
	if history == nil {
		history = []Order{}
	}
	if err := kv.SetJSON(ctx, r.store, kv.KeyOrderHistory, history); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order history")
	}
	return nil
}
