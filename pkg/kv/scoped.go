package kv

import (
	"context"
	"errors"
	"strings"
)

const profileNamespace = "profile/"

// ErrNoProfile is returned when a scoped store is used without a profile in context.
var ErrNoProfile = errors.New("kv: profile missing from context")

type profileKey struct{}

// WithProfile binds a profile id to the context; scoped stores prefix every key with it.
func WithProfile(ctx context.Context, profileID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, profileKey{}, profileID)
}

// ProfileFromContext returns the profile id bound by WithProfile.
func ProfileFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(profileKey{}).(string); ok {
		return v
	}
	return ""
}

// ProfilePrefix returns the key prefix owned by a profile.
func ProfilePrefix(profileID string) string {
	return profileNamespace + profileID + "/"
}

type scoped struct {
	inner Store
}

// Scoped wraps a store so each key lives under the caller's profile namespace.
func Scoped(inner Store) Store {
	return &scoped{inner: inner}
}

func (s *scoped) key(ctx context.Context, key string) (string, error) {
	id := ProfileFromContext(ctx)
	if id == "" {
		return "", ErrNoProfile
	}
	return ProfilePrefix(id) + key, nil
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := s.key(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.inner.Get(ctx, k)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	k, err := s.key(ctx, key)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, k, value)
}

func (s *scoped) Remove(ctx context.Context, key string) error {
	k, err := s.key(ctx, key)
	if err != nil {
		return err
	}
	return s.inner.Remove(ctx, k)
}

func (s *scoped) Has(ctx context.Context, key string) (bool, error) {
	k, err := s.key(ctx, key)
	if err != nil {
		return false, err
	}
	return s.inner.Has(ctx, k)
}

func (s *scoped) ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	k, err := s.key(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys, err := s.inner.ListKeysByPrefix(ctx, k)
	if err != nil {
		return nil, err
	}
	ns := ProfilePrefix(ProfileFromContext(ctx))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, strings.TrimPrefix(key, ns))
	}
	return out, nil
}
