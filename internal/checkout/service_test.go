package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/aether-storefront/internal/auth"
	"github.com/angelmondragon/aether-storefront/internal/cart"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/coupons"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/internal/loyalty"
	"github.com/angelmondragon/aether-storefront/internal/orders"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	snap *catalog.Snapshot
}

func (s staticCatalog) Snapshot() *catalog.Snapshot { return s.snap }

type harness struct {
	svc     Service
	cart    cart.Service
	coupons coupons.Service
	loyalty loyalty.Service
	orders  orders.Service
	rec     *events.Recorder
	reg     *prometheus.Registry
	ctx     context.Context
}

func newHarness(t *testing.T) harness {
	t.Helper()
	store := kv.Scoped(kv.NewMemory())
	bus := events.NewBus()
	rec := &events.Recorder{}
	bus.Subscribe(rec.Handle)
	cat := staticCatalog{snap: catalog.NewSnapshot(1, time.Now(), []catalog.Product{
		{ID: "1", Name: "Desk Lamp", Brand: "Aether", Price: dec("100"), DisplayPrice: dec("100")},
		{ID: "2", Name: "Cable", Brand: "Aether", Price: dec("25"), DisplayPrice: dec("25"), Discounts: []string{"FREESHIP"}},
	})}

	wallet, err := coupons.NewService(coupons.ServiceParams{Store: store, Events: bus})
	require.NoError(t, err)
	points, err := loyalty.NewService(loyalty.ServiceParams{Store: store, Coupons: wallet, Events: bus})
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.ServiceParams{Repository: cart.NewRepository(store), Catalog: cat, Gate: auth.Open, Events: bus})
	require.NoError(t, err)
	history, err := orders.NewService(orders.ServiceParams{Repository: orders.NewRepository(store), Events: bus})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Cart:    cartSvc,
		Catalog: cat,
		Coupons: wallet,
		Loyalty: points,
		Orders:  history,
		Gate:    auth.Open,
		Events:  bus,
		Metrics: metrics.NewCheckoutMetrics(reg),
		Now:     func() time.Time { return time.UnixMilli(1_772_000_123_456) },
	})
	require.NoError(t, err)
	return harness{svc: svc, cart: cartSvc, coupons: wallet, loyalty: points, orders: history, rec: rec, reg: reg, ctx: kv.WithProfile(context.Background(), "p1")}
}

func validForm() OrderForm {
	return OrderForm{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Phone:   "+1 (555) 010-2030",
		Address: "1 Engine Way",
		City:    "London",
		ZipCode: "N1",
		Country: "UK",
	}
}

func TestQuoteFlagsInvalidCoupon(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, err := h.cart.Add(h.ctx, "1", 1)
	require.NoError(t, err)

	quote, err := h.svc.Quote(h.ctx, enums.ShippingMethodExpress, "aether20")
	require.NoError(t, err)
	assert.True(t, quote.InvalidCoupon)
	assert.Equal(t, "119.99", quote.Total.StringFixed(2))

	def, _ := coupons.Lookup("AETHER20")
	require.NoError(t, h.coupons.Grant(h.ctx, def))

	quote, err = h.svc.Quote(h.ctx, enums.ShippingMethodExpress, "aether20")
	require.NoError(t, err)
	assert.False(t, quote.InvalidCoupon)
	assert.Equal(t, "99.99", quote.Total.StringFixed(2))
	assert.Equal(t, "199.00", quote.AmountForFreeShipping)
	assert.Equal(t, 1, quote.ItemCount)

	held, err := h.coupons.Has(h.ctx, "AETHER20")
	require.NoError(t, err)
	assert.True(t, held)
}

func TestPlaceOrderHappyPath(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, err := h.cart.Add(h.ctx, "1", 1)
	require.NoError(t, err)
	def, _ := coupons.Lookup("AETHER20")
	require.NoError(t, h.coupons.Grant(h.ctx, def))

	form := validForm()
	form.ShippingMethod = enums.ShippingMethodExpress
	form.CouponCode = " aether20 "
	res, err := h.svc.PlaceOrder(h.ctx, form)
	require.NoError(t, err)
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, "ORD-123456", res.OrderID)

	order := res.Order
	require.NotNil(t, order)
	assert.Equal(t, "99.99", order.Total.StringFixed(2))
	assert.Equal(t, enums.PaymentMethodCard, order.PaymentMethod)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	require.NotNil(t, order.Coupon)
	assert.Equal(t, "AETHER20", *order.Coupon)
	assert.Equal(t, int64(999), order.PointsEarned)
	assert.Equal(t, "Desk Lamp", order.Items[0].Name)

	balance, err := h.loyalty.Balance(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(999), balance)

	used, err := h.coupons.HasUsed(h.ctx, "AETHER20")
	require.NoError(t, err)
	assert.True(t, used)

	lines, err := h.cart.Lines(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)

	history, err := h.orders.List(h.ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	assert.Len(t, h.rec.OfType(events.TypeOrderPlaced), 1)
	assert.Len(t, h.rec.OfType(events.TypeCouponConsumed), 1)
	series, err := testutil.GatherAndCount(h.reg, "checkout_orders_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestPlaceOrderRejections(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	res, err := h.svc.PlaceOrder(h.ctx, validForm())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ReasonEmptyCart, res.Reason)

	_, err = h.cart.Add(h.ctx, "1", 1)
	require.NoError(t, err)

	bad := validForm()
	bad.Email = "nope"
	bad.Phone = "call me"
	bad.City = "  "
	res, err = h.svc.PlaceOrder(h.ctx, bad)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ReasonInvalidForm, res.Reason)
	assert.Equal(t, "Invalid email format", res.FieldErrors["email"])
	assert.Equal(t, "Invalid phone format", res.FieldErrors["phone"])
	assert.Contains(t, res.FieldErrors, "city")

	withCoupon := validForm()
	withCoupon.CouponCode = "WELCOME10"
	res, err = h.svc.PlaceOrder(h.ctx, withCoupon)
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidCoupon, res.Reason)

	_, err = h.cart.SetQuantity(h.ctx, "1", cart.MaxQuantity+1)
	require.NoError(t, err)
	res, err = h.svc.PlaceOrder(h.ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, ReasonQuantityLimit, res.Reason)

	lines, err := h.cart.Lines(h.ctx)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Empty(t, h.rec.OfType(events.TypeOrderPlaced))
}

func TestPlaceOrderFreeShippingCart(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, err := h.cart.Add(h.ctx, "2", 2)
	require.NoError(t, err)

	form := validForm()
	form.ShippingMethod = enums.ShippingMethodInternational
	form.PaymentMethod = enums.PaymentMethodCOD
	res, err := h.svc.PlaceOrder(h.ctx, form)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.True(t, res.Order.ShippingFee.IsZero())
	assert.Equal(t, "50.00", res.Order.Total.StringFixed(2))
	assert.Nil(t, res.Order.Coupon)
	assert.Equal(t, enums.PaymentMethodCOD, res.Order.PaymentMethod)
}

func TestPlaceOrderRequiresSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	svc, err := NewService(ServiceParams{
		Cart:    h.cart,
		Catalog: staticCatalog{snap: catalog.Empty()},
		Coupons: h.coupons,
		Loyalty: h.loyalty,
		Orders:  h.orders,
		Gate:    auth.GateFunc(func(context.Context) error { return auth.ErrAuthRequired }),
	})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(h.ctx, validForm())
	assert.ErrorIs(t, err, auth.ErrAuthRequired)
}
