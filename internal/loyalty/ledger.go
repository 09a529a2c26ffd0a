// Package loyalty keeps a profile's points balance, its history and the reward shop.
package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/aether-storefront/internal/coupons"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

var (
	ErrInsufficientPoints = pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient points")
	ErrInvalidPoints      = pkgerrors.New(pkgerrors.CodeValidation, "points must be non-negative")
	ErrUnknownReward      = pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
)

// Entry is one line of the points history.
type Entry struct {
	Date        time.Time             `json:"date"`
	Amount      int64                 `json:"amount"`
	Type        enums.PointsDirection `json:"type"`
	Description string                `json:"description"`
}

// Update is the payload of points.updated.
type Update struct {
	Balance   int64                 `json:"balance"`
	Change    int64                 `json:"change"`
	Direction enums.PointsDirection `json:"type"`
}

type Service interface {
	Balance(ctx context.Context) (int64, error)
	History(ctx context.Context) ([]Entry, error)
	Award(ctx context.Context, points int64, reason string) (int64, error)
	Deduct(ctx context.Context, points int64, reason string) (int64, error)
	Redeem(ctx context.Context, rewardID string) (coupons.Definition, error)
	Reset(ctx context.Context) error
}

type ServiceParams struct {
	Store   kv.Store
	Coupons coupons.Service
	Events  events.Publisher
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	store   kv.Store
	coupons coupons.Service
	events  events.Publisher
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon service is required")
	}
	if params.Events == nil {
		params.Events = events.Discard
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		store:   params.Store,
		coupons: params.Coupons,
		events:  params.Events,
		logg:    params.Logger,
		now:     params.Now,
	}, nil
}

func (s *service) Balance(ctx context.Context) (int64, error) {
	var balance int64
	if _, err := kv.GetJSON(ctx, s.store, kv.KeyPoints, &balance); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load points balance")
	}
	return balance, nil
}

func (s *service) History(ctx context.Context) ([]Entry, error) {
	history := []Entry{}
	if _, err := kv.GetJSON(ctx, s.store, kv.KeyPointsHistory, &history); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load points history")
	}
	return history, nil
}

func (s *service) Award(ctx context.Context, points int64, reason string) (int64, error) {
	if points < 0 {
		return 0, ErrInvalidPoints.WithDetails(map[string]any{"points": points})
	}
	return s.apply(ctx, points, enums.PointsDirectionGain, reason)
}

// Deduct rejects a deduction that would leave the balance below zero.
func (s *service) Deduct(ctx context.Context, points int64, reason string) (int64, error) {
	if points < 0 {
		return 0, ErrInvalidPoints.WithDetails(map[string]any{"points": points})
	}
	balance, err := s.Balance(ctx)
	if err != nil {
		return 0, err
	}
	if balance < points {
		return balance, ErrInsufficientPoints.WithDetails(map[string]any{"balance": balance, "required": points})
	}
	return s.apply(ctx, points, enums.PointsDirectionLoss, reason)
}

func (s *service) apply(ctx context.Context, points int64, direction enums.PointsDirection, reason string) (int64, error) {
	balance, err := s.Balance(ctx)
	if err != nil {
		return 0, err
	}
	history, err := s.History(ctx)
	if err != nil {
		return 0, err
	}

	if direction == enums.PointsDirectionGain {
		balance += points
	} else {
		balance -= points
	}
	history = append(history, Entry{
		Date:        s.now().UTC(),
		Amount:      points,
		Type:        direction,
		Description: reason,
	})

	if err := kv.SetJSON(ctx, s.store, kv.KeyPoints, balance); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save points balance")
	}
	if err := kv.SetJSON(ctx, s.store, kv.KeyPointsHistory, history); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save points history")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"points": points, "direction": direction.String(), "balance": balance})
	s.logg.Info(logCtx, "points updated")
	s.events.Publish(ctx, events.TypePointsUpdated, Update{Balance: balance, Change: points, Direction: direction})
	return balance, nil
}

// Redeem spends the reward's cost and grants its coupon. Both checks run before any write.
func (s *service) Redeem(ctx context.Context, rewardID string) (coupons.Definition, error) {
	reward, ok := RewardByID(rewardID)
	if !ok {
		return coupons.Definition{}, ErrUnknownReward.WithDetails(map[string]any{"id": rewardID})
	}
	def, ok := reward.Coupon()
	if !ok {
		return coupons.Definition{}, pkgerrors.New(pkgerrors.CodeInternal, "reward references unknown coupon")
	}

	held, err := s.coupons.Has(ctx, def.Code)
	if err != nil {
		return coupons.Definition{}, err
	}
	if held {
		return coupons.Definition{}, coupons.ErrAlreadyHeld.WithDetails(map[string]any{"code": def.Code})
	}
	balance, err := s.Balance(ctx)
	if err != nil {
		return coupons.Definition{}, err
	}
	if balance < reward.Cost {
		return coupons.Definition{}, ErrInsufficientPoints.WithDetails(map[string]any{"balance": balance, "required": reward.Cost})
	}

	if _, err := s.Deduct(ctx, reward.Cost, fmt.Sprintf("Redeemed %s", reward.Name)); err != nil {
		return coupons.Definition{}, err
	}
	if err := s.coupons.Grant(ctx, def); err != nil {
		return coupons.Definition{}, err
	}
	return def, nil
}

// Reset starts a fresh ledger with a zero balance.
func (s *service) Reset(ctx context.Context) error {
	if err := kv.SetJSON(ctx, s.store, kv.KeyPoints, int64(0)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset points balance")
	}
	if err := kv.SetJSON(ctx, s.store, kv.KeyPointsHistory, []Entry{}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset points history")
	}
	return nil
}
