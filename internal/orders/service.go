// Package orders keeps each profile's order history.
package orders

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/angelmondragon/aether-storefront/internal/events"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
)

var (
	ErrOrderNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	ErrDuplicateID   = pkgerrors.New(pkgerrors.CodeConflict, "order id already recorded")
)

type Service interface {
	NextID(ctx context.Context, now time.Time) (string, error)
	Append(ctx context.Context, order Order) error
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
	Clear(ctx context.Context) error
}

type ServiceParams struct {
	Repository Repository
	Events     events.Publisher
}

type service struct {
	repo   Repository
	events events.Publisher
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repository is required")
	}
	if params.Events == nil {
		params.Events = events.Discard
	}
	return &service{repo: params.Repository, events: params.Events}, nil
}

// FormatID renders ORD- plus the last six digits of the unix millisecond clock.
func FormatID(t time.Time) string {
	return fmt.Sprintf("ORD-%06d", t.UnixMilli()%1_000_000)
}

// NextID returns the first id at or after now that the history does not already hold.
func (s *service) NextID(ctx context.Context, now time.Time) (string, error) {
	history, err := s.repo.Load(ctx)
	if err != nil {
		return "", err
	}
	for {
		id := FormatID(now)
		if indexOf(history, id) < 0 {
			return id, nil
		}
		now = now.Add(time.Millisecond)
	}
}

func (s *service) Append(ctx context.Context, order Order) error {
	history, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if indexOf(history, order.ID) >= 0 {
		return ErrDuplicateID.WithDetails(map[string]any{"id": order.ID})
	}
	return s.repo.Save(ctx, append(history, order))
}

// List returns orders in placement order.
func (s *service) List(ctx context.Context) ([]Order, error) {
	return s.repo.Load(ctx)
}

func (s *service) Get(ctx context.Context, id string) (Order, error) {
	history, err := s.repo.Load(ctx)
	if err != nil {
		return Order{}, err
	}
	idx := indexOf(history, id)
	if idx < 0 {
		return Order{}, ErrOrderNotFound.WithDetails(map[string]any{"id": id})
	}
	return history[idx], nil
}

func (s *service) Clear(ctx context.Context) error {
	if err := s.repo.Save(ctx, nil); err != nil {
		return err
	}
	s.events.Publish(ctx, events.TypeOrderHistoryCleared, nil)
	return nil
}

func indexOf(history []Order, id string) int {
	return slices.IndexFunc(history, func(o Order) bool { return o.ID == id })
}
