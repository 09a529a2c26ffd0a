package checkout

import (
	"testing"
	"time"

	"github.com/angelmondragon/aether-storefront/internal/cart"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/coupons"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(id, price string, qty int, free bool) cart.Line {
	return cart.Line{ProductID: id, Quantity: qty, UnitPrice: dec(price), FreeShipping: free}
}

func mustCoupon(t *testing.T, code string) *coupons.Definition {
	t.Helper()
	def, ok := coupons.Lookup(code)
	require.True(t, ok)
	return &def
}

func TestTotalsAboveThresholdShipFree(t *testing.T) {
	t.Parallel()
	totals := CalculateTotals([]cart.Line{line("1", "350.00", 1, false)}, nil, enums.ShippingMethodStandard, nil)
	assert.True(t, totals.Subtotal.Equal(dec("350")))
	assert.True(t, totals.Shipping.IsZero())
	assert.True(t, totals.Discount.IsZero())
	assert.Equal(t, "350.00", totals.Total.StringFixed(2))
}

func TestTotalsPercentCouponWithExpress(t *testing.T) {
	t.Parallel()
	totals := CalculateTotals([]cart.Line{line("1", "100.00", 1, false)}, nil, enums.ShippingMethodExpress, mustCoupon(t, "AETHER20"))
	assert.Equal(t, "20.00", totals.Discount.StringFixed(2))
	assert.Equal(t, "19.99", totals.Shipping.StringFixed(2))
	assert.Equal(t, "99.99", totals.Total.StringFixed(2))
	require.NotNil(t, totals.AppliedCoupon)
	assert.Equal(t, "AETHER20", totals.AppliedCoupon.Code)
}

func TestTotalsAllFreeShippingLines(t *testing.T) {
	t.Parallel()
	lines := []cart.Line{line("1", "20.00", 1, true), line("2", "15.00", 2, true)}
	totals := CalculateTotals(lines, nil, enums.ShippingMethodExpress, nil)
	assert.True(t, totals.Subtotal.Equal(dec("50")))
	assert.True(t, totals.Shipping.IsZero())
	assert.Equal(t, "50.00", totals.Total.StringFixed(2))

	lines[1].FreeShipping = false
	totals = CalculateTotals(lines, nil, enums.ShippingMethodExpress, nil)
	assert.Equal(t, "19.99", totals.Shipping.StringFixed(2))
}

func TestTotalsShippingCoupon(t *testing.T) {
	t.Parallel()
	totals := CalculateTotals([]cart.Line{line("1", "40.00", 1, false)}, nil, enums.ShippingMethodInternational, mustCoupon(t, "FREESHIP"))
	assert.True(t, totals.Shipping.IsZero())
	assert.True(t, totals.Discount.IsZero())
	assert.Equal(t, "40.00", totals.Total.StringFixed(2))
}

func TestThresholdIsStrictAndStandardOnly(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "9.99", CalculateShipping(enums.ShippingMethodStandard, dec("299")).StringFixed(2))
	assert.True(t, CalculateShipping(enums.ShippingMethodStandard, dec("299.01")).IsZero())
	assert.Equal(t, "19.99", CalculateShipping(enums.ShippingMethodExpress, dec("1000")).StringFixed(2))
	assert.Equal(t, "9.99", CalculateShipping(enums.ShippingMethod("drone"), dec("10")).StringFixed(2))
}

func TestTotalRoundsHalfUpAndNeverNegative(t *testing.T) {
	t.Parallel()
	totals := CalculateTotals([]cart.Line{line("1", "33.335", 1, false)}, nil, enums.ShippingMethodStandard, nil)
	assert.Equal(t, "43.33", totals.Total.StringFixed(2))

	totals = CalculateTotals([]cart.Line{line("1", "0.005", 1, true)}, nil, enums.ShippingMethodStandard, nil)
	assert.Equal(t, "0.01", totals.Total.StringFixed(2))

	empty := CalculateTotals(nil, nil, enums.ShippingMethodStandard, mustCoupon(t, "AETHER50"))
	assert.False(t, empty.Total.IsNegative())
}

func TestSubtotalFallsBackToCatalogPrice(t *testing.T) {
	t.Parallel()
	snap := catalog.NewSnapshot(1, time.Now(), []catalog.Product{{
		ID: "1", Name: "Lamp", Brand: "Aether", Price: dec("400"), DisplayPrice: dec("320"),
	}})
	totals := CalculateTotals([]cart.Line{{ProductID: "1", Quantity: 1}}, snap, enums.ShippingMethodStandard, nil)
	assert.True(t, totals.Subtotal.Equal(dec("320")))
	assert.True(t, totals.Shipping.IsZero())
}

func TestFreeShippingHelpers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "49.00", AmountForFreeShipping(dec("250")).StringFixed(2))
	assert.True(t, AmountForFreeShipping(dec("400")).IsZero())
	assert.False(t, IsFreeShippingAvailable(dec("299")))
	assert.True(t, IsFreeShippingAvailable(dec("299.5")))

	methods := ShippingMethods()
	require.Len(t, methods, 3)
	assert.Equal(t, enums.ShippingMethodStandard, methods[0].Method)
	assert.Equal(t, "Express", methods[1].Label)
	assert.Equal(t, "39.99", methods[2].Rate.StringFixed(2))
}
