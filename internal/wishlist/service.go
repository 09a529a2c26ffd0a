// Package wishlist holds the two saved-product lists: wishlist and favorites.
package wishlist

import (
	"context"
	"slices"

	"github.com/angelmondragon/aether-storefront/internal/auth"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

var ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")

// CatalogReader returns the catalog snapshot currently in effect.
type CatalogReader interface {
	Snapshot() *catalog.Snapshot
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repository *Repository
	Catalog    CatalogReader
	Gate       auth.Gate
	Events     events.Publisher
	Logger     *logger.Logger
}

// Service exposes the saved-list operations. Add and Toggle require a session.
type Service interface {
	Add(ctx context.Context, kind enums.SavedKind, productID string) (bool, error)
	Remove(ctx context.Context, kind enums.SavedKind, productID string) (bool, error)
	Toggle(ctx context.Context, kind enums.SavedKind, productID string) (bool, error)
	Contains(ctx context.Context, kind enums.SavedKind, productID string) (bool, error)
	Clear(ctx context.Context, kind enums.SavedKind) error
	ClearAll(ctx context.Context) error
	IDs(ctx context.Context, kind enums.SavedKind) ([]string, error)
	Resolve(ctx context.Context) (Saved, error)
	TotalCount(ctx context.Context) (int, error)
	Validate(ctx context.Context, snap *catalog.Snapshot) (Removed, error)
}

type service struct {
	repo    *Repository
	catalog CatalogReader
	gate    auth.Gate
	events  events.Publisher
	logg    *logger.Logger
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
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

// Add returns false when the product is already saved.
func (s *service) Add(ctx context.Context, kind enums.SavedKind, productID string) (bool, error) {
	if err := s.gate.Require(ctx); err != nil {
		return false, err
	}
	ids, err := s.repo.IDs(ctx, kind)
	if err != nil {
		return false, err
	}
	if slices.Contains(ids, productID) {
		return false, nil
	}
	if !s.catalog.Snapshot().Contains(productID) {
		return false, ErrProductNotFound.WithDetails(map[string]any{"id": productID})
	}
	if err := s.commit(ctx, kind, append(ids, productID), true); err != nil {
		return false, err
	}
	return true, nil
}

// Remove returns false when the product was not saved.
func (s *service) Remove(ctx context.Context, kind enums.SavedKind, productID string) (bool, error) {
	ids, err := s.repo.IDs(ctx, kind)
	if err != nil {
		return false, err
	}
	idx := slices.Index(ids, productID)
	if idx < 0 {
		return false, nil
	}
	if err := s.commit(ctx, kind, slices.Delete(ids, idx, idx+1), false); err != nil {
		return false, err
	}
	return true, nil
}

// Toggle flips membership and returns the resulting state.
func (s *service) Toggle(ctx context.Context, kind enums.SavedKind, productID string) (bool, error) {
	if err := s.gate.Require(ctx); err != nil {
		return false, err
	}
	ids, err := s.repo.IDs(ctx, kind)
	if err != nil {
		return false, err
	}
	if idx := slices.Index(ids, productID); idx >= 0 {
		if err := s.commit(ctx, kind, slices.Delete(ids, idx, idx+1), false); err != nil {
			return false, err
		}
		return false, nil
	}
	if !s.catalog.Snapshot().Contains(productID) {
		return false, ErrProductNotFound.WithDetails(map[string]any{"id": productID})
	}
	if err := s.commit(ctx, kind, append(ids, productID), true); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) Contains(ctx context.Context, kind enums.SavedKind, productID string) (bool, error) {
	ids, err := s.repo.IDs(ctx, kind)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, productID), nil
}

func (s *service) Clear(ctx context.Context, kind enums.SavedKind) error {
	return s.commit(ctx, kind, []string{}, false)
}

func (s *service) ClearAll(ctx context.Context) error {
	if err := s.repo.Save(ctx, enums.SavedKindWishlist, nil); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, enums.SavedKindFavorites, nil); err != nil {
		return err
	}
	return s.announce(ctx, "", false)
}

func (s *service) IDs(ctx context.Context, kind enums.SavedKind) ([]string, error) {
	return s.repo.IDs(ctx, kind)
}

// Resolve joins both lists with the current catalog, skipping ids it no longer has.
func (s *service) Resolve(ctx context.Context) (Saved, error) {
	wish, fav, err := s.both(ctx)
	if err != nil {
		return Saved{}, err
	}
	snap := s.catalog.Snapshot()
	return Saved{
		Wishlist:   snap.ByIDs(wish),
		Favorites:  snap.ByIDs(fav),
		TotalCount: len(wish) + len(fav),
	}, nil
}

func (s *service) TotalCount(ctx context.Context) (int, error) {
	wish, fav, err := s.both(ctx)
	if err != nil {
		return 0, err
	}
	return len(wish) + len(fav), nil
}

// Validate prunes ids missing from snap. One update is published when anything was removed.
func (s *service) Validate(ctx context.Context, snap *catalog.Snapshot) (Removed, error) {
	removed := Removed{Wishlist: []string{}, Favorites: []string{}}
	for _, kind := range []enums.SavedKind{enums.SavedKindWishlist, enums.SavedKindFavorites} {
		ids, err := s.repo.IDs(ctx, kind)
		if err != nil {
			return Removed{}, err
		}
		kept := make([]string, 0, len(ids))
		var dropped []string
		for _, id := range ids {
			if snap.Contains(id) {
				kept = append(kept, id)
			} else {
				dropped = append(dropped, id)
			}
		}
		if len(dropped) == 0 {
			continue
		}
		if err := s.repo.Save(ctx, kind, kept); err != nil {
			return Removed{}, err
		}
		if kind == enums.SavedKindFavorites {
			removed.Favorites = dropped
		} else {
			removed.Wishlist = dropped
		}
	}
	if removed.Empty() {
		return removed, nil
	}
	if err := s.announce(ctx, "", false); err != nil {
		return Removed{}, err
	}
	return removed, nil
}

func (s *service) commit(ctx context.Context, kind enums.SavedKind, ids []string, added bool) error {
	if err := s.repo.Save(ctx, kind, ids); err != nil {
		return err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"kind": kind.String(), "added": added})
	s.logg.Debug(logCtx, "saved list updated")
	return s.announce(ctx, kind, added)
}

func (s *service) announce(ctx context.Context, kind enums.SavedKind, added bool) error {
	wish, fav, err := s.both(ctx)
	if err != nil {
		return err
	}
	s.events.Publish(ctx, events.TypeWishlistUpdated, Update{
		Kind:       kind,
		Added:      added,
		Wishlist:   wish,
		Favorites:  fav,
		TotalCount: len(wish) + len(fav),
	})
	return nil
}

func (s *service) both(ctx context.Context) ([]string, []string, error) {
	wish, err := s.repo.IDs(ctx, enums.SavedKindWishlist)
	if err != nil {
		return nil, nil, err
	}
	fav, err := s.repo.IDs(ctx, enums.SavedKindFavorites)
	if err != nil {
		return nil, nil, err
	}
	return wish, fav, nil
}
