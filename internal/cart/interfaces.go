package cart

import (
	"context"

	"github.com/angelmondragon/aether-storefront/internal/catalog"
)

// CatalogReader returns the catalog snapshot currently in effect.
type CatalogReader interface {
	Snapshot() *catalog.Snapshot
}

// Repository persists the whole ledger of the profile in ctx.
type Repository interface {
	Load(ctx context.Context) ([]Line, error)
	Save(ctx context.Context, lines []Line) error
}
