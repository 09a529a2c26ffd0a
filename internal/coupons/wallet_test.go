package coupons

import (
	"context"
	"testing"

	"github.com/angelmondragon/aether-storefront/internal/events"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWallet(t *testing.T) (Service, *events.Recorder, context.Context) {
	t.Helper()
	bus := events.NewBus()
	rec := &events.Recorder{}
	bus.Subscribe(rec.Handle)
	svc, err := NewService(ServiceParams{Store: kv.Scoped(kv.NewMemory()), Events: bus})
	require.NoError(t, err)
	return svc, rec, kv.WithProfile(context.Background(), "p1")
}

func TestLookupNormalizes(t *testing.T) {
	t.Parallel()
	def, ok := Lookup("  aether20 ")
	require.True(t, ok)
	assert.Equal(t, "AETHER20", def.Code)
	assert.True(t, def.Value.Equal(decimal.RequireFromString("0.2")))

	_, ok = Lookup("NOPE")
	assert.False(t, ok)
	assert.Len(t, All(), 8)
}

func TestDefinitionDiscount(t *testing.T) {
	t.Parallel()
	pct, _ := Lookup("AETHER20")
	ship, _ := Lookup("FREESHIP")
	subtotal := decimal.NewFromInt(100)
	assert.True(t, pct.DiscountOn(subtotal).Equal(decimal.NewFromInt(20)))
	assert.True(t, ship.DiscountOn(subtotal).IsZero())
	assert.True(t, ship.IsShipping())
}

func TestValidateRequiresCatalogAndInventory(t *testing.T) {
	t.Parallel()
	svc, _, ctx := newWallet(t)

	_, err := svc.Validate(ctx, "BOGUS")
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	_, err = svc.Validate(ctx, "AETHER20")
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	def, _ := Lookup("AETHER20")
	require.NoError(t, svc.Grant(ctx, def))

	got, err := svc.Validate(ctx, " aether20")
	require.NoError(t, err)
	assert.Equal(t, "AETHER20", got.Code)

	held, err := svc.Has(ctx, "AETHER20")
	require.NoError(t, err)
	assert.True(t, held)
}

func TestGrantRejectsDuplicates(t *testing.T) {
	t.Parallel()
	svc, rec, ctx := newWallet(t)
	def, _ := Lookup("AETHER10")

	require.NoError(t, svc.Grant(ctx, def))
	err := svc.Grant(ctx, def)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	inv, err := svc.Inventory(ctx)
	require.NoError(t, err)
	assert.Len(t, inv, 1)
	granted := rec.OfType(events.TypeCouponGranted)
	require.Len(t, granted, 1)
	assert.Equal(t, Update{Code: "AETHER10"}, granted[0].Payload)
}

func TestConsumeMovesCodeToUsedLedger(t *testing.T) {
	t.Parallel()
	svc, rec, ctx := newWallet(t)
	def, _ := Lookup("FREESHIP")
	require.NoError(t, svc.Grant(ctx, def))

	require.NoError(t, svc.Consume(ctx, "freeship"))

	held, err := svc.Has(ctx, "FREESHIP")
	require.NoError(t, err)
	assert.False(t, held)
	used, err := svc.HasUsed(ctx, "FREESHIP")
	require.NoError(t, err)
	assert.True(t, used)
	consumed := rec.OfType(events.TypeCouponConsumed)
	require.Len(t, consumed, 1)
	assert.Equal(t, Update{Code: "FREESHIP"}, consumed[0].Payload)

	err = svc.Consume(ctx, "FREESHIP")
	assert.ErrorIs(t, err, ErrNotHeld)

	_, err = svc.Validate(ctx, "FREESHIP")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestGrantStarterSkipsUsedAndHeld(t *testing.T) {
	t.Parallel()
	svc, _, ctx := newWallet(t)

	granted, err := svc.GrantStarter(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"WELCOME10", "FREESHIP"}, granted)

	require.NoError(t, svc.Consume(ctx, "WELCOME10"))

	granted, err = svc.GrantStarter(ctx)
	require.NoError(t, err)
	assert.Empty(t, granted)

	inv, err := svc.Inventory(ctx)
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, "FREESHIP", inv[0].Code)

	codes, err := svc.UsedCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"WELCOME10"}, codes)
}
