// Package coupons holds the static coupon catalog and each profile's coupon wallet.
package coupons

import (
	"sort"
	"strings"

	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Definition is a static coupon rule. Value is a fraction for percent coupons and unused for shipping.
type Definition struct {
	Code        string           `json:"code"`
	Kind        enums.CouponKind `json:"type"`
	Value       decimal.Decimal  `json:"value"`
	Description string           `json:"description"`
}

func percent(code, value, description string) Definition {
	return Definition{Code: code, Kind: enums.CouponKindPercent, Value: decimal.RequireFromString(value), Description: description}
}

func shipping(code, description string) Definition {
	return Definition{Code: code, Kind: enums.CouponKindShipping, Value: decimal.Zero, Description: description}
}

var definitions = map[string]Definition{
	"WELCOME10":      percent("WELCOME10", "0.1", "Welcome gift: 10% off"),
	"AETHER10":       percent("AETHER10", "0.1", "Standard Discount: 10% off"),
	"AETHER20":       percent("AETHER20", "0.2", "Premium Discount: 20% off"),
	"AETHER50":       percent("AETHER50", "0.5", "Super Discount: 50% off"),
	"FREESHIP":       shipping("FREESHIP", "Free Shipping"),
	"FREESHIP_PRO":   shipping("FREESHIP_PRO", "Premium Free Shipping"),
	"SAVE10":         percent("SAVE10", "0.1", "Save 10%"),
	"TRADING_REWARD": percent("TRADING_REWARD", "0.15", "Trading Reward: 15% off"),
}

// StarterCodes are granted once when an account is created.
var StarterCodes = []string{"WELCOME10", "FREESHIP"}

// Normalize trims and uppercases a user-entered code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup finds a definition by code after normalization.
func Lookup(code string) (Definition, bool) {
	def, ok := definitions[Normalize(code)]
	return def, ok
}

// All lists the catalog sorted by code.
func All() []Definition {
	out := make([]Definition, 0, len(definitions))
	for _, def := range definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// IsShipping reports whether the coupon waives shipping.
func (d Definition) IsShipping() bool {
	return d.Kind == enums.CouponKindShipping
}

// DiscountOn returns the percent discount for subtotal; zero for shipping coupons.
func (d Definition) DiscountOn(subtotal decimal.Decimal) decimal.Decimal {
	if d.Kind != enums.CouponKindPercent {
		return decimal.Zero
	}
	return subtotal.Mul(d.Value)
}
