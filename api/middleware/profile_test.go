package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aether-storefront/internal/profile"
	"github.com/angelmondragon/aether-storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
)

type stubReconciler struct {
	err   error
	calls int
	seen  []string
}

func (s *stubReconciler) EnsureCurrent(ctx context.Context) (storefront.Report, error) {
	s.calls++
	s.seen = append(s.seen, profile.IDFromContext(ctx))
	return storefront.Report{}, s.err
}

func TestProfileRejectsMissingHeader(t *testing.T) {
	called := false
	h := Profile(profile.NewLocks(), profile.NewRegistry(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.False(t, called)
}

func TestProfileRejectsInvalidHeader(t *testing.T) {
	h := Profile(profile.NewLocks(), profile.NewRegistry(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(profile.Header, "not valid!")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestProfileBindsIDAndReconciles(t *testing.T) {
	registry := profile.NewRegistry()
	rec := &stubReconciler{}
	var got string
	h := Profile(profile.NewLocks(), registry, rec, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = profile.IDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(profile.Header, "tab-1")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "tab-1", got)
	assert.Empty(t, registry.Active(), "reads do not register the profile")
	assert.Equal(t, []string{"tab-1"}, rec.seen)
}

func TestProfileRegistersAfterSuccessfulWrite(t *testing.T) {
	registry := profile.NewRegistry()
	locks := profile.NewLocks()
	h := Profile(locks, registry, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(id, target string) {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		req.Header.Set(profile.Header, id)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	send("tab-ok", "/api/v1/cart/items")
	send("tab-rejected", "/api/v1/cart/items?fail=1")
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil)
		req.Header.Set(profile.Header, fmt.Sprintf("reader-%d", i))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, []string{"tab-ok"}, registry.Active())
	assert.Equal(t, 0, locks.Len())
}

func TestProfileStopsWhenReconcileFails(t *testing.T) {
	rec := &stubReconciler{err: pkgerrors.New(pkgerrors.CodeDependency, "store down")}
	called := false
	h := Profile(profile.NewLocks(), profile.NewRegistry(), rec, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(profile.Header, "tab-1")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.False(t, called)
}

func TestProfileSerializesRequestsPerProfile(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	h := Profile(profile.NewLocks(), profile.NewRegistry(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		peak = max(peak, inFlight)
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
			req.Header.Set(profile.Header, "same-tab")
			h.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
}
