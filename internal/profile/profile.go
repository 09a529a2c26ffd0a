// Package profile identifies the storefront profile a request acts on and serializes work per profile.
package profile

import (
	"context"
	"regexp"
	"sort"
	"sync"

	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
)

const Header = "X-Profile-Id"

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateID checks the caller-supplied profile id.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid profile id").
			WithDetails(map[string]any{"header": Header})
	}
	return nil
}

// WithID binds id to ctx for scoped stores, events and logging.
func WithID(ctx context.Context, id string) context.Context {
	return kv.WithProfile(ctx, id)
}

// IDFromContext returns the bound profile id, or "".
func IDFromContext(ctx context.Context) string {
	return kv.ProfileFromContext(ctx)
}

// Locks hands out one mutex per profile id. An entry lives only while some caller
// holds or waits on it.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{locks: map[string]*lockEntry{}}
}

func (l *Locks) acquire(id string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	return e
}

func (l *Locks) release(id string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
}

// Do runs fn while holding the profile's lock.
func (l *Locks) Do(id string, fn func() error) error {
	e := l.acquire(id)
	defer l.release(id, e)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}

// Len reports how many profile locks are currently held or awaited.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Registry remembers which profiles have written state since boot. Read-only
// visitors stay out of it and are reconciled lazily on their next request.
type Registry struct {
	mu     sync.RWMutex
	active map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{active: map[string]struct{}{}}
}

func (r *Registry) Touch(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	r.active[id] = struct{}{}
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// Active returns the known profile ids in sorted order.
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
