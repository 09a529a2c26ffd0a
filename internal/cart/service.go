// Package cart is the per-profile cart ledger.
package cart

import (
	"context"
	"slices"

	"github.com/angelmondragon/aether-storefront/internal/auth"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/events"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// MaxQuantity is the per-line soft cap applied by the HTTP layer.
const MaxQuantity = 50

var (
	ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	ErrLineNotFound    = pkgerrors.New(pkgerrors.CodeStateConflict, "cart line not found")
	ErrInvalidQuantity = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
)

// Line is one cart entry. UnitPrice is the effective price captured when the line was created.
type Line struct {
	ProductID    string          `json:"id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"price"`
	FreeShipping bool            `json:"hasFreeShipping"`
}

// Item is a line joined with its live product, which is nil once the product left the catalog.
type Item struct {
	Line
	Product *catalog.Product `json:"product"`
}

// Update is the payload of cart.updated.
type Update struct {
	Items    []Line          `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Service interface {
	Add(ctx context.Context, productID string, quantity int) ([]Line, error)
	Remove(ctx context.Context, productID string) ([]Line, error)
	SetQuantity(ctx context.Context, productID string, quantity int) (Line, error)
	Increment(ctx context.Context, productID string) (Line, error)
	Decrement(ctx context.Context, productID string) ([]Line, error)
	Clear(ctx context.Context) error
	Lines(ctx context.Context) ([]Line, error)
	Item(ctx context.Context, productID string) (Line, bool, error)
	Count(ctx context.Context) (int, error)
	Subtotal(ctx context.Context) (decimal.Decimal, error)
	ItemsWithDetails(ctx context.Context) ([]Item, error)
	Validate(ctx context.Context, snap *catalog.Snapshot) ([]Line, error)
}

type ServiceParams struct {
	Repository Repository
	Catalog    CatalogReader
	Gate       auth.Gate
	Events     events.Publisher
	Logger     *logger.Logger
}

type service struct {
	repo    Repository
	catalog CatalogReader
	gate    auth.Gate
	events  events.Publisher
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repository is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog reader is required")
	}
	if params.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth gate is required")
	}
	if params.Events == nil {
		params.Events = events.Discard
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		repo:    params.Repository,
		catalog: params.Catalog,
		gate:    params.Gate,
		events:  params.Events,
		logg:    params.Logger,
	}, nil
}

// Add merges into an existing line or appends a new one priced at the product's effective price.
func (s *service) Add(ctx context.Context, productID string, quantity int) ([]Line, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity.WithDetails(map[string]any{"quantity": quantity})
	}
	if err := s.gate.Require(ctx); err != nil {
		return nil, err
	}
	product, ok := s.catalog.Snapshot().ByID(productID)
	if !ok {
		return nil, ErrProductNotFound.WithDetails(map[string]any{"id": productID})
	}

	lines, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(lines, productID); idx >= 0 {
		lines[idx].Quantity += quantity
	} else {
		lines = append(lines, Line{
			ProductID:    product.ID,
			Quantity:     quantity,
			UnitPrice:    product.EffectivePrice(),
			FreeShipping: product.HasFreeShipping(),
		})
	}
	if err := s.commit(ctx, lines); err != nil {
		return nil, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": productID, "quantity": quantity})
	s.logg.Debug(logCtx, "cart item added")
	return lines, nil
}

// Remove drops the line if present; removing a missing line is not an error.
func (s *service) Remove(ctx context.Context, productID string) ([]Line, error) {
	lines, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	lines = slices.DeleteFunc(lines, func(l Line) bool { return l.ProductID == productID })
	if err := s.commit(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetQuantity clamps quantity to at least 1. The line must exist.
func (s *service) SetQuantity(ctx context.Context, productID string, quantity int) (Line, error) {
	return s.mutateLine(ctx, productID, func(l *Line) { l.Quantity = max(1, quantity) })
}

func (s *service) Increment(ctx context.Context, productID string) (Line, error) {
	return s.mutateLine(ctx, productID, func(l *Line) { l.Quantity = max(1, l.Quantity) + 1 })
}

// Decrement removes the line instead of leaving it at zero.
func (s *service) Decrement(ctx context.Context, productID string) ([]Line, error) {
	lines, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(lines, productID)
	if idx < 0 {
		return nil, ErrLineNotFound.WithDetails(map[string]any{"id": productID})
	}
	if lines[idx].Quantity <= 1 {
		lines = slices.Delete(lines, idx, idx+1)
	} else {
		lines[idx].Quantity--
	}
	if err := s.commit(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *service) Clear(ctx context.Context) error {
	return s.commit(ctx, []Line{})
}

func (s *service) Lines(ctx context.Context) ([]Line, error) {
	return s.repo.Load(ctx)
}

func (s *service) Item(ctx context.Context, productID string) (Line, bool, error) {
	lines, err := s.repo.Load(ctx)
	if err != nil {
		return Line{}, false, err
	}
	idx := indexOf(lines, productID)
	if idx < 0 {
		return Line{}, false, nil
	}
	return lines[idx], true, nil
}

func (s *service) Count(ctx context.Context) (int, error) {
	lines, err := s.repo.Load(ctx)
	if err != nil {
		return 0, err
	}
	return Count(lines), nil
}

func (s *service) Subtotal(ctx context.Context) (decimal.Decimal, error) {
	lines, err := s.repo.Load(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return Subtotal(lines, s.catalog.Snapshot()), nil
}

func (s *service) ItemsWithDetails(ctx context.Context) ([]Item, error) {
	lines, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	snap := s.catalog.Snapshot()
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		item := Item{Line: l}
		if p, ok := snap.ByID(l.ProductID); ok {
			item.Product = &p
		}
		items = append(items, item)
	}
	return items, nil
}

// Validate prunes lines whose product is missing from snap and returns them.
// Nothing is written or announced when every line still resolves.
func (s *service) Validate(ctx context.Context, snap *catalog.Snapshot) ([]Line, error) {
	lines, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	kept := make([]Line, 0, len(lines))
	removed := []Line{}
	for _, l := range lines {
		if snap.Contains(l.ProductID) {
			kept = append(kept, l)
		} else {
			removed = append(removed, l)
		}
	}
	if len(removed) == 0 {
		return removed, nil
	}
	if err := s.commitWith(ctx, kept, snap); err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *service) mutateLine(ctx context.Context, productID string, fn func(*Line)) (Line, error) {
	lines, err := s.repo.Load(ctx)
	if err != nil {
		return Line{}, err
	}
	idx := indexOf(lines, productID)
	if idx < 0 {
		return Line{}, ErrLineNotFound.WithDetails(map[string]any{"id": productID})
	}
	fn(&lines[idx])
	if err := s.commit(ctx, lines); err != nil {
		return Line{}, err
	}
	return lines[idx], nil
}

func (s *service) commit(ctx context.Context, lines []Line) error {
	return s.commitWith(ctx, lines, s.catalog.Snapshot())
}

// commitWith writes the full ledger through and announces it.
func (s *service) commitWith(ctx context.Context, lines []Line, snap *catalog.Snapshot) error {
	if err := s.repo.Save(ctx, lines); err != nil {
		return err
	}
	s.events.Publish(ctx, events.TypeCartUpdated, Update{
		Items:    slices.Clone(lines),
		Count:    Count(lines),
		Subtotal: Subtotal(lines, snap),
	})
	return nil
}

// Count sums quantities.
func Count(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// Subtotal sums unit price times quantity, falling back to the live effective price
// for lines that carry no captured price.
func Subtotal(lines []Line, snap *catalog.Snapshot) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		price := l.UnitPrice
		if price.IsZero() && snap != nil {
			if p, ok := snap.ByID(l.ProductID); ok {
				price = p.EffectivePrice()
			}
		}
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// AllFreeShipping reports whether every line waives shipping; an empty cart does not.
func AllFreeShipping(lines []Line) bool {
	if len(lines) == 0 {
		return false
	}
	for _, l := range lines {
		if !l.FreeShipping {
			return false
		}
	}
	return true
}

func indexOf(lines []Line, productID string) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.ProductID == productID })
}
