package orders

import "context"

// Repository persists the append-only order history of the profile in ctx.
type Repository interface {
	Load(ctx context.Context) ([]Order, error)
	Save(ctx context.Context, history []Order) error
}
