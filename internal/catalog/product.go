package catalog

import (
	"strings"

	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	PlaceholderImage  = "assets/placeholder.svg"
	DefaultName       = "Unknown Product"
	DefaultCategory   = "Uncategorized"
	statusUpcoming    = "upcoming"
	freeShippingBadge = "FREESHIP"
)

// Product is the normalized catalog record. Prices are decimals in the feed currency (USD).
type Product struct {
	ID                    string             `json:"id"`
	Name                  string             `json:"name"`
	NameVN                string             `json:"name_vn"`
	Brand                 string             `json:"brand"`
	Price                 decimal.Decimal    `json:"price"`
	DisplayPrice          decimal.Decimal    `json:"display_price"`
	DiscountOriginalPrice decimal.Decimal    `json:"discount_original_price"`
	Image                 string             `json:"image"`
	Images                []string           `json:"images"`
	Stock                 int                `json:"stock"`
	Description           string             `json:"description"`
	DescriptionVN         string             `json:"description_vn"`
	Category              string             `json:"category"`
	DiscountType          enums.DiscountType `json:"discount_type"`
	BadgeText             string             `json:"badge_text,omitempty"`
	Discounts             []string           `json:"discounts"`
	Status                string             `json:"status"`
	Rating                float64            `json:"rating"`
	ReviewCount           int                `json:"review_count"`
	IsUpcoming            bool               `json:"is_upcoming"`
}

// EffectivePrice is the price shown and charged.
func (p Product) EffectivePrice() decimal.Decimal {
	return p.DisplayPrice
}

func (p Product) IsDiscounted() bool {
	return p.DisplayPrice.LessThan(p.Price)
}

// DiscountPercent returns the rounded discount relative to the base price, 0 when undiscounted.
func (p Product) DiscountPercent() int {
	if !p.IsDiscounted() || !p.Price.IsPositive() {
		return 0
	}
	pct := p.Price.Sub(p.DisplayPrice).Div(p.Price).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// HasFreeShipping reports whether a discount badge waives shipping for this SKU.
func (p Product) HasFreeShipping() bool {
	for _, d := range p.Discounts {
		if strings.EqualFold(strings.TrimSpace(d), freeShippingBadge) {
			return true
		}
	}
	return false
}

// IsDisplayable is the render-stage validity filter: name, brand and a positive price.
func (p Product) IsDisplayable() bool {
	return strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Brand) != "" &&
		p.Price.IsPositive()
}

func (p Product) clone() Product {
	cp := p
	cp.Images = append([]string(nil), p.Images...)
	cp.Discounts = append([]string(nil), p.Discounts...)
	return cp
}
