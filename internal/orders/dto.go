package orders

import (
	"time"

	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Customer is the contact and delivery block captured at checkout.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Item is an order line frozen at placement time.
type Item struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order is immutable once appended to the history.
type Order struct {
	ID             string               `json:"id"`
	PlacedAt       time.Time            `json:"timestamp"`
	Customer       Customer             `json:"customer"`
	Items          []Item               `json:"items"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	ShippingFee    decimal.Decimal      `json:"shippingFee"`
	ShippingMethod enums.ShippingMethod `json:"shippingMethod"`
	Discount       decimal.Decimal      `json:"discount"`
	Coupon         *string              `json:"coupon"`
	Total          decimal.Decimal      `json:"total"`
	PaymentMethod  enums.PaymentMethod  `json:"paymentMethod"`
	Status         enums.OrderStatus    `json:"status"`
	PointsEarned   int64                `json:"pointsEarned"`
}

// ItemCount sums line quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
