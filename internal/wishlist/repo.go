package wishlist

import (
	"context"

	"github.com/angelmondragon/aether-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
)

// Repository stores each list as a JSON array of product ids.
type Repository struct {
	store kv.Store
}

func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

func keyFor(kind enums.SavedKind) string {
	if kind == enums.SavedKindFavorites {
		return kv.KeyFavorites
	}
	return kv.KeyWishlist
}

func (r *Repository) IDs(ctx context.Context, kind enums.SavedKind) ([]string, error) {
	ids := []string{}
	if _, err := kv.GetJSON(ctx, r.store, keyFor(kind), &ids); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+kind.String())
	}
	return ids, nil
}

func (r *Repository) Save(ctx context.Context, kind enums.SavedKind, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	if err := kv.SetJSON(ctx, r.store, keyFor(kind), ids); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save "+kind.String())
	}
	return nil
}
