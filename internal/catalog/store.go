package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/aether-storefront/internal/events"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/angelmondragon/aether-storefront/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// ErrStaleSync is returned when a newer sync was applied while this one was in flight.
var ErrStaleSync = pkgerrors.New(pkgerrors.CodeConflict, "stale catalog sync discarded")

// Fetcher retrieves the raw feed text.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context) (string, error) {
	return f(ctx)
}

// SyncResult summarizes an applied sync.
type SyncResult struct {
	Version      uint64   `json:"version"`
	ProductCount int      `json:"product_count"`
	RemovedIDs   []string `json:"removed_ids"`
}

type StoreConfig struct {
	Fetcher Fetcher
	Events  events.Publisher
	Metrics *metrics.CatalogMetrics
	Logger  *logger.Logger
}

// Store owns the active snapshot and replaces it atomically on sync.
type Store struct {
	fetcher Fetcher
	events  events.Publisher
	metrics *metrics.CatalogMetrics
	logg    *logger.Logger
	now     func() time.Time

	snap    atomic.Pointer[Snapshot]
	issued  atomic.Uint64
	mu      sync.Mutex
	applied uint64
	group   singleflight.Group
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("catalog fetcher required")
	}
	if cfg.Events == nil {
		cfg.Events = events.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	s := &Store{
		fetcher: cfg.Fetcher,
		events:  cfg.Events,
		metrics: cfg.Metrics,
		logg:    cfg.Logger,
		now:     time.Now,
	}
	s.snap.Store(Empty())
	return s, nil
}

// Snapshot returns the active generation; never nil.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Ready reports whether at least one sync has been applied.
func (s *Store) Ready() bool {
	return s.Snapshot().Version > 0
}

// Sync fetches, parses and swaps the snapshot. Each call takes a token before fetching;
// a result whose token is not newer than the last applied one is discarded.
func (s *Store) Sync(ctx context.Context) (SyncResult, error) {
	token := s.issued.Add(1)
	started := s.now()
	ctx = s.logg.WithField(ctx, "sync_token", token)

	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.metrics.IncFailure("fetch")
		s.metrics.ObserveSync("error", s.now().Sub(started))
		s.logg.Error(ctx, "catalog fetch failed", err)
		return SyncResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog fetch failed")
	}

	products, err := Parse(raw)
	if err != nil {
		s.metrics.IncFailure("parse")
		s.metrics.ObserveSync("error", s.now().Sub(started))
		s.logg.Error(ctx, "catalog parse failed", err)
		return SyncResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog feed malformed")
	}

	next := NewSnapshot(token, s.now().UTC(), products)

	s.mu.Lock()
	if token <= s.applied {
		s.mu.Unlock()
		s.metrics.IncStale()
		s.metrics.ObserveSync("stale", s.now().Sub(started))
		s.logg.Warn(ctx, "discarding stale catalog sync")
		return SyncResult{}, ErrStaleSync
	}
	prev := s.snap.Swap(next)
	s.applied = token
	s.mu.Unlock()

	result := SyncResult{
		Version:      token,
		ProductCount: next.Len(),
		RemovedIDs:   removedIDs(prev, next),
	}

	s.metrics.SetProducts(next.Len())
	s.metrics.ObserveSync("ok", s.now().Sub(started))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"version":  result.Version,
		"products": result.ProductCount,
		"removed":  len(result.RemovedIDs),
	}), "catalog synced")

	s.events.Publish(kv.WithProfile(ctx, ""), events.TypeCatalogSynced, result)
	return result, nil
}

// SyncShared coalesces concurrent callers onto one in-flight sync.
func (s *Store) SyncShared(ctx context.Context) (SyncResult, error) {
	v, err, _ := s.group.Do("sync", func() (any, error) {
		return s.Sync(ctx)
	})
	if err != nil {
		return SyncResult{}, err
	}
	return v.(SyncResult), nil
}

// Run re-syncs every interval until ctx is done. Failures are logged and the previous snapshot kept.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.SyncShared(ctx)
		}
	}
}

func removedIDs(prev, next *Snapshot) []string {
	removed := []string{}
	if prev == nil {
		return removed
	}
	keep := next.IDs()
	for id := range prev.IDs() {
		if _, ok := keep[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed
}
