package storefront

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/aether-storefront/internal/auth"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/internal/profile"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "id,name,brand,price,stock,category\n"

func feed(rows ...string) string {
	return header + strings.Join(rows, "\n") + "\n"
}

type switchFetcher struct {
	body atomic.Value
}

func (f *switchFetcher) Fetch(context.Context) (string, error) {
	return f.body.Load().(string), nil
}

type fixture struct {
	svc     *Services
	fetcher *switchFetcher
	rec     *events.Recorder
	store   kv.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	bus := events.NewBus()
	fetcher := &switchFetcher{}
	fetcher.body.Store(feed("1,Lamp,Aether,10,5,Home", "2,Chair,Aether,20,5,Home", "3,Desk,Aether,30,5,Home"))
	store, err := catalog.NewStore(catalog.StoreConfig{Fetcher: fetcher, Events: bus})
	require.NoError(t, err)

	mem := kv.NewMemory()
	svc, err := New(Params{Store: mem, Catalog: store, Bus: bus})
	require.NoError(t, err)

	rec := &events.Recorder{}
	bus.Subscribe(rec.Handle)
	return fixture{svc: svc, fetcher: fetcher, rec: rec, store: mem}
}

func loggedIn(t *testing.T, f fixture, id string) context.Context {
	t.Helper()
	ctx := profile.WithID(context.Background(), id)
	_, err := f.svc.Auth.Login(ctx, auth.LoginRequest{Email: id + "@example.com"})
	require.NoError(t, err)
	return ctx
}

func TestSyncPrunesActiveProfilesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Catalog.Sync(ctx)
	require.NoError(t, err)

	pctx := loggedIn(t, f, "alice")
	f.svc.Registry.Touch("alice")
	_, err = f.svc.Cart.Add(pctx, "1", 1)
	require.NoError(t, err)
	_, err = f.svc.Cart.Add(pctx, "3", 2)
	require.NoError(t, err)
	_, err = f.svc.Saved.Add(pctx, enums.SavedKindFavorites, "3")
	require.NoError(t, err)
	f.rec.Reset()

	f.fetcher.body.Store(feed("1,Lamp,Aether,10,5,Home", "2,Chair,Aether,20,5,Home"))
	_, err = f.svc.Catalog.Sync(ctx)
	require.NoError(t, err)

	cartUpdates := f.rec.OfType(events.TypeCartUpdated)
	require.Len(t, cartUpdates, 1)
	assert.Equal(t, "alice", cartUpdates[0].ProfileID)
	assert.Len(t, f.rec.OfType(events.TypeWishlistUpdated), 1)

	reconciled := f.rec.OfType(events.TypeCatalogReconciled)
	require.Len(t, reconciled, 1)
	report := reconciled[0].Payload.(Report)
	assert.Equal(t, []string{"3"}, report.RemovedCart)
	assert.Equal(t, []string{"3"}, report.RemovedFavorites)

	lines, err := f.svc.Cart.Lines(pctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "1", lines[0].ProductID)
}

func TestInactiveProfileReconciledLazily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Catalog.Sync(ctx)
	require.NoError(t, err)

	pctx := loggedIn(t, f, "bob")
	_, err = f.svc.Cart.Add(pctx, "2", 1)
	require.NoError(t, err)
	_, err = f.svc.Reconciler.EnsureCurrent(pctx)
	require.NoError(t, err)

	f.fetcher.body.Store(feed("1,Lamp,Aether,10,5,Home"))
	_, err = f.svc.Catalog.Sync(ctx)
	require.NoError(t, err)

	lines, err := f.svc.Cart.Lines(pctx)
	require.NoError(t, err)
	assert.Len(t, lines, 1, "bob was not active, nothing pruned yet")

	f.rec.Reset()
	report, err := f.svc.Reconciler.EnsureCurrent(pctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, report.RemovedCart)
	assert.Len(t, f.rec.OfType(events.TypeCartUpdated), 1)

	report, err = f.svc.Reconciler.EnsureCurrent(pctx)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	assert.Len(t, f.rec.OfType(events.TypeCartUpdated), 1)
}

func TestEnsureCurrentSkipsBeforeFirstSync(t *testing.T) {
	f := newFixture(t)
	pctx := profile.WithID(context.Background(), "carol")
	report, err := f.svc.Reconciler.EnsureCurrent(pctx)
	require.NoError(t, err)
	assert.Empty(t, report.Generation)

	has, err := f.store.Has(context.Background(), kv.ProfilePrefix("carol")+kv.KeyCatalogVersion)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestNewRequiresInfrastructure(t *testing.T) {
	_, err := New(Params{})
	assert.Error(t, err)
}
