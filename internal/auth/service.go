// Package auth keeps the per-profile session flags and gates ledger mutations on them.
package auth

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/angelmondragon/aether-storefront/internal/coupons"
	"github.com/angelmondragon/aether-storefront/internal/events"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrAuthRequired = pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	ErrInvalidEmail = pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
)

// PointsResetter initializes a new account's loyalty ledger.
type PointsResetter interface {
	Reset(ctx context.Context) error
}

// Service defines the session operations exposed to the account controller.
type Service interface {
	Gate
	Signup(ctx context.Context, req SignupRequest) (Account, error)
	Login(ctx context.Context, req LoginRequest) (Account, error)
	Logout(ctx context.Context) error
	Account(ctx context.Context) (Account, error)
	IsAuthenticated(ctx context.Context) (bool, error)
	UpdateUsername(ctx context.Context, username string) (Account, error)
	UpdateAvatar(ctx context.Context, avatar string) (Account, error)
}

type ServiceParams struct {
	Store   kv.Store
	Coupons coupons.Service
	Points  PointsResetter
	Events  events.Publisher
	Logger  *logger.Logger
}

type service struct {
	store   kv.Store
	coupons coupons.Service
	points  PointsResetter
	events  events.Publisher
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon service is required")
	}
	if params.Points == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points resetter is required")
	}
	if params.Events == nil {
		params.Events = events.Discard
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		store:   params.Store,
		coupons: params.Coupons,
		points:  params.Points,
		events:  params.Events,
		logg:    params.Logger,
	}, nil
}

// ValidateEmail applies the storefront's loose email shape check.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail.WithDetails(map[string]any{"field": "email"})
	}
	return nil
}

// Signup opens a session and, the first time an email registers on this profile,
// starts a fresh points ledger and grants the starter coupons.
func (s *service) Signup(ctx context.Context, req SignupRequest) (Account, error) {
	email := strings.TrimSpace(req.Email)
	if err := ValidateEmail(email); err != nil {
		return Account{}, err
	}

	registered, err := s.registeredAccounts(ctx)
	if err != nil {
		return Account{}, err
	}
	key := strings.ToLower(email)
	isNew := !slices.Contains(registered, key)

	account, err := s.openSession(ctx, email, req.Name, req.Username)
	if err != nil {
		return Account{}, err
	}

	if isNew {
		if err := s.points.Reset(ctx); err != nil {
			return Account{}, err
		}
		granted, err := s.coupons.GrantStarter(ctx)
		if err != nil {
			return Account{}, err
		}
		registered = append(registered, key)
		if err := kv.SetJSON(ctx, s.store, kv.KeyRegisteredAccounts, registered); err != nil {
			return Account{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save registered accounts")
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{"username": account.Username, "starter_coupons": granted})
		s.logg.Info(logCtx, "account registered")
	}

	s.events.Publish(ctx, events.TypeAuthStateChanged, StateChange{LoggedIn: true, Email: email, Signup: isNew})
	return account, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (Account, error) {
	email := strings.TrimSpace(req.Email)
	if err := ValidateEmail(email); err != nil {
		return Account{}, err
	}
	account, err := s.openSession(ctx, email, req.Name, req.Username)
	if err != nil {
		return Account{}, err
	}
	s.events.Publish(ctx, events.TypeAuthStateChanged, StateChange{LoggedIn: true, Email: email})
	return account, nil
}

// Logout clears only the session flag; profile fields stay for the next login.
func (s *service) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, kv.KeyLoggedIn); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
	}
	s.events.Publish(ctx, events.TypeAuthStateChanged, StateChange{LoggedIn: false})
	return nil
}

func (s *service) IsAuthenticated(ctx context.Context) (bool, error) {
	var loggedIn bool
	if _, err := kv.GetJSON(ctx, s.store, kv.KeyLoggedIn, &loggedIn); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return loggedIn, nil
}

// Require returns ErrAuthRequired and announces auth.required when no session is open.
func (s *service) Require(ctx context.Context) error {
	ok, err := s.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.events.Publish(ctx, events.TypeAuthRequired, nil)
		return ErrAuthRequired
	}
	return nil
}

func (s *service) Account(ctx context.Context) (Account, error) {
	loggedIn, err := s.IsAuthenticated(ctx)
	if err != nil {
		return Account{}, err
	}
	account := Account{LoggedIn: loggedIn}
	fields := []struct {
		key string
		dst *string
	}{
		{kv.KeyUserEmail, &account.Email},
		{kv.KeyUserName, &account.Name},
		{kv.KeyUserUsername, &account.Username},
		{kv.KeyUserAvatar, &account.Avatar},
	}
	for _, f := range fields {
		if _, err := kv.GetJSON(ctx, s.store, f.key, f.dst); err != nil {
			return Account{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
		}
	}
	return account, nil
}

func (s *service) UpdateUsername(ctx context.Context, username string) (Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Account{}, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if err := s.Require(ctx); err != nil {
		return Account{}, err
	}
	if err := kv.SetJSON(ctx, s.store, kv.KeyUserUsername, username); err != nil {
		return Account{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save username")
	}
	return s.Account(ctx)
}

func (s *service) UpdateAvatar(ctx context.Context, avatar string) (Account, error) {
	if err := s.Require(ctx); err != nil {
		return Account{}, err
	}
	if err := kv.SetJSON(ctx, s.store, kv.KeyUserAvatar, avatar); err != nil {
		return Account{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save avatar")
	}
	return s.Account(ctx)
}

func (s *service) openSession(ctx context.Context, email, name, username string) (Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = name
	}

	writes := []struct {
		key   string
		value any
	}{
		{kv.KeyLoggedIn, true},
		{kv.KeyUserEmail, email},
		{kv.KeyUserName, name},
		{kv.KeyUserUsername, username},
	}
	for _, w := range writes {
		if err := kv.SetJSON(ctx, s.store, w.key, w.value); err != nil {
			return Account{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
		}
	}
	return s.Account(ctx)
}

func (s *service) registeredAccounts(ctx context.Context) ([]string, error) {
	registered := []string{}
	if _, err := kv.GetJSON(ctx, s.store, kv.KeyRegisteredAccounts, &registered); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load registered accounts")
	}
	return registered, nil
}
