package cart

import (
	"context"

	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
)

type kvRepository struct {
	store kv.Store
}

// NewRepository stores the ledger as one JSON document under the cart key.
func NewRepository(store kv.Store) Repository {
	return &kvRepository{store: store}
}

func (r *kvRepository) Load(ctx context.Context) ([]Line, error) {
	lines := []Line{}
	if _, err := kv.GetJSON(ctx, r.store, kv.KeyCart, &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return lines, nil
}

func (r *kvRepository) Save(ctx context.Context, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	if err := kv.SetJSON(ctx, r.store, kv.KeyCart, lines); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}
