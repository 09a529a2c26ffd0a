package checkout

import (
	"github.com/angelmondragon/aether-storefront/internal/cart"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/coupons"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// FreeShippingThreshold waives standard shipping for subtotals strictly above it.
var FreeShippingThreshold = decimal.NewFromInt(299)

var shippingRates = map[enums.ShippingMethod]decimal.Decimal{
	enums.ShippingMethodStandard:      decimal.RequireFromString("9.99"),
	enums.ShippingMethodExpress:       decimal.RequireFromString("19.99"),
	enums.ShippingMethodInternational: decimal.RequireFromString("39.99"),
}

var shippingLabels = map[enums.ShippingMethod]string{
	enums.ShippingMethodStandard:      "Standard",
	enums.ShippingMethodExpress:       "Express",
	enums.ShippingMethodInternational: "International",
}

// ShippingOption is one selectable method with its base rate.
type ShippingOption struct {
	Method enums.ShippingMethod `json:"method"`
	Rate   decimal.Decimal      `json:"rate"`
	Label  string               `json:"label"`
}

// Totals is the priced view of a cart.
type Totals struct {
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Shipping      decimal.Decimal     `json:"shipping"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	AppliedCoupon *coupons.Definition `json:"applied_coupon,omitempty"`
}

// ShippingMethods lists the methods in display order.
func ShippingMethods() []ShippingOption {
	methods := []enums.ShippingMethod{
		enums.ShippingMethodStandard,
		enums.ShippingMethodExpress,
		enums.ShippingMethodInternational,
	}
	out := make([]ShippingOption, 0, len(methods))
	for _, m := range methods {
		out = append(out, ShippingOption{Method: m, Rate: shippingRates[m], Label: shippingLabels[m]})
	}
	return out
}

// ShippingRate returns the base rate; unknown methods pay the standard rate.
func ShippingRate(method enums.ShippingMethod) decimal.Decimal {
	if rate, ok := shippingRates[method]; ok {
		return rate
	}
	return shippingRates[enums.ShippingMethodStandard]
}

// CalculateShipping applies the standard-only threshold waiver.
func CalculateShipping(method enums.ShippingMethod, subtotal decimal.Decimal) decimal.Decimal {
	if method == enums.ShippingMethodStandard && IsFreeShippingAvailable(subtotal) {
		return decimal.Zero
	}
	return ShippingRate(method)
}

func IsFreeShippingAvailable(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThan(FreeShippingThreshold)
}

// AmountForFreeShipping is how much more the subtotal needs to reach the threshold, never negative.
func AmountForFreeShipping(subtotal decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, FreeShippingThreshold.Sub(subtotal))
}

// CalculateTotals prices lines with an already validated coupon, or nil.
// Shipping is zeroed by the threshold, by a shipping coupon, or when every line ships free.
func CalculateTotals(lines []cart.Line, snap *catalog.Snapshot, method enums.ShippingMethod, coupon *coupons.Definition) Totals {
	subtotal := cart.Subtotal(lines, snap)
	shipping := CalculateShipping(method, subtotal)
	discount := decimal.Zero

	if cart.AllFreeShipping(lines) {
		shipping = decimal.Zero
	}
	if coupon != nil {
		if coupon.IsShipping() {
			shipping = decimal.Zero
		}
		discount = coupon.DiscountOn(subtotal)
	}

	total := decimal.Max(decimal.Zero, subtotal.Add(shipping).Sub(discount)).Round(2)
	return Totals{
		Subtotal:      subtotal,
		Shipping:      shipping,
		Discount:      discount,
		Total:         total,
		AppliedCoupon: coupon,
	}
}
