// Package events is the notification boundary between the storefront core and its observers.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/google/uuid"
)

// Type names a domain event.
type Type string

const (
	TypeCartUpdated         Type = "cart.updated"
	TypeWishlistUpdated     Type = "wishlist.updated"
	TypePointsUpdated       Type = "points.updated"
	TypeOrderPlaced         Type = "order.placed"
	TypeCouponConsumed      Type = "coupon.consumed"
	TypeCouponGranted       Type = "coupon.granted"
	TypeAuthStateChanged    Type = "auth.state_changed"
	TypeAuthRequired        Type = "auth.required"
	TypeCatalogSynced       Type = "catalog.synced"
	TypeCatalogReconciled   Type = "catalog.reconciled"
	TypeOrderHistoryCleared Type = "orders.history_cleared"
)

var validTypes = []Type{
	TypeCartUpdated,
	TypeWishlistUpdated,
	TypePointsUpdated,
	TypeOrderPlaced,
	TypeCouponConsumed,
	TypeCouponGranted,
	TypeAuthStateChanged,
	TypeAuthRequired,
	TypeCatalogSynced,
	TypeCatalogReconciled,
	TypeOrderHistoryCleared,
}

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	for _, candidate := range validTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Event is one emitted notification. ProfileID is empty for global events.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ProfileID  string    `json:"profile_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Handler receives events synchronously on the publisher's goroutine.
type Handler func(ctx context.Context, evt Event)

// Publisher is what core components emit through.
type Publisher interface {
	Publish(ctx context.Context, t Type, payload any)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Type, any) {}

type subscription struct {
	id      uint64
	types   map[Type]struct{}
	handler Handler
}

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	now    func() time.Time
}

func NewBus() *Bus {
	return &Bus{now: time.Now}
}

// Subscribe registers h for the listed types, or for every type when none are given.
// The returned func removes the subscription.
func (b *Bus) Subscribe(h Handler, types ...Type) func() {
	if h == nil {
		return func() {}
	}
	set := map[Type]struct{}{}
	for _, t := range types {
		set[t] = struct{}{}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, types: set, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish stamps the event with the context's profile and delivers it.
func (b *Bus) Publish(ctx context.Context, t Type, payload any) {
	if ctx == nil {
		ctx = context.Background()
	}
	evt := Event{
		ID:         uuid.NewString(),
		Type:       t,
		ProfileID:  kv.ProfileFromContext(ctx),
		OccurredAt: b.now().UTC(),
		Payload:    payload,
	}

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if len(s.types) > 0 {
			if _, ok := s.types[t]; !ok {
				continue
			}
		}
		targets = append(targets, s.handler)
	}
	b.mu.RUnlock()

	for _, h := range targets {
		h(ctx, evt)
	}
}

// Recorder collects events; used by tests and diagnostics.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Handle(_ context.Context, evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType filters recorded events.
func (r *Recorder) OfType(t Type) []Event {
	out := []Event{}
	for _, evt := range r.Events() {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Type, e.ProfileID)
}
