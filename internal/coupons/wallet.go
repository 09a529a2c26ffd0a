package coupons

import (
	"context"
	"slices"

	"github.com/angelmondragon/aether-storefront/internal/events"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
)

var (
	ErrInvalidCoupon = pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
	ErrAlreadyHeld   = pkgerrors.New(pkgerrors.CodeConflict, "coupon already held")
	ErrNotHeld       = pkgerrors.New(pkgerrors.CodeNotFound, "coupon not held")
)

// Instance is a definition granted to one profile; it is removed when consumed.
type Instance struct {
	Definition
}

// Update is the payload of coupon.granted and coupon.consumed.
type Update struct {
	Code string `json:"code"`
}

// Service manages a profile's coupon inventory and used-code ledger.
type Service interface {
	Inventory(ctx context.Context) ([]Instance, error)
	Has(ctx context.Context, code string) (bool, error)
	Grant(ctx context.Context, def Definition) error
	GrantStarter(ctx context.Context) ([]string, error)
	Consume(ctx context.Context, code string) error
	UsedCodes(ctx context.Context) ([]string, error)
	HasUsed(ctx context.Context, code string) (bool, error)
	Validate(ctx context.Context, code string) (Definition, error)
}

type ServiceParams struct {
	Store  kv.Store
	Events events.Publisher
}

type service struct {
	repo   *Repository
	events events.Publisher
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if params.Events == nil {
		params.Events = events.Discard
	}
	return &service{repo: NewRepository(params.Store), events: params.Events}, nil
}

func (s *service) Inventory(ctx context.Context) ([]Instance, error) {
	return s.repo.Inventory(ctx)
}

func (s *service) Has(ctx context.Context, code string) (bool, error) {
	items, err := s.repo.Inventory(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(items, Normalize(code)) >= 0, nil
}

// Grant adds one instance of def; a profile holds at most one instance per code.
func (s *service) Grant(ctx context.Context, def Definition) error {
	items, err := s.repo.Inventory(ctx)
	if err != nil {
		return err
	}
	if indexOf(items, def.Code) >= 0 {
		return ErrAlreadyHeld.WithDetails(map[string]any{"code": def.Code})
	}
	items = append(items, Instance{Definition: def})
	if err := s.repo.SaveInventory(ctx, items); err != nil {
		return err
	}
	s.events.Publish(ctx, events.TypeCouponGranted, Update{Code: def.Code})
	return nil
}

// GrantStarter grants the starter set, skipping codes already held or already used.
func (s *service) GrantStarter(ctx context.Context) ([]string, error) {
	used, err := s.repo.UsedCodes(ctx)
	if err != nil {
		return nil, err
	}
	granted := []string{}
	for _, code := range StarterCodes {
		if slices.Contains(used, code) {
			continue
		}
		def, _ := Lookup(code)
		err := s.Grant(ctx, def)
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			continue
		}
		if err != nil {
			return granted, err
		}
		granted = append(granted, code)
	}
	return granted, nil
}

// Consume removes the held instance and records the code as used.
func (s *service) Consume(ctx context.Context, code string) error {
	code = Normalize(code)
	items, err := s.repo.Inventory(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(items, code)
	if idx < 0 {
		return ErrNotHeld.WithDetails(map[string]any{"code": code})
	}
	used, err := s.repo.UsedCodes(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(used, code) {
		used = append(used, code)
		if err := s.repo.SaveUsedCodes(ctx, used); err != nil {
			return err
		}
	}
	items = slices.Delete(items, idx, idx+1)
	if err := s.repo.SaveInventory(ctx, items); err != nil {
		return err
	}
	s.events.Publish(ctx, events.TypeCouponConsumed, Update{Code: code})
	return nil
}

func (s *service) UsedCodes(ctx context.Context) ([]string, error) {
	return s.repo.UsedCodes(ctx)
}

func (s *service) HasUsed(ctx context.Context, code string) (bool, error) {
	used, err := s.repo.UsedCodes(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(used, Normalize(code)), nil
}

// Validate accepts a code only if it is in the catalog and currently held. It never writes.
func (s *service) Validate(ctx context.Context, code string) (Definition, error) {
	def, ok := Lookup(code)
	if !ok {
		return Definition{}, ErrInvalidCoupon.WithDetails(map[string]any{"code": Normalize(code)})
	}
	held, err := s.Has(ctx, def.Code)
	if err != nil {
		return Definition{}, err
	}
	if !held {
		return Definition{}, ErrInvalidCoupon.WithDetails(map[string]any{"code": def.Code})
	}
	return def, nil
}

func indexOf(items []Instance, code string) int {
	return slices.IndexFunc(items, func(i Instance) bool { return i.Code == code })
}
