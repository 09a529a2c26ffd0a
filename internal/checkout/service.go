// Package checkout prices carts and turns them into orders.
package checkout

import (
	"context"
	"time"

	"github.com/angelmondragon/aether-storefront/internal/auth"
	"github.com/angelmondragon/aether-storefront/internal/cart"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/coupons"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/internal/loyalty"
	"github.com/angelmondragon/aether-storefront/internal/orders"
	pkgcheckout "github.com/angelmondragon/aether-storefront/pkg/checkout"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/angelmondragon/aether-storefront/pkg/metrics"
)

const (
	ReasonInvalidForm   = "invalid checkout form"
	ReasonEmptyCart     = "cart is empty"
	ReasonInvalidCoupon = "invalid coupon code"
	ReasonQuantityLimit = "quantity limit exceeded"
)

// Quote prices the current cart without side effects.
type Quote struct {
	Totals
	Method                enums.ShippingMethod `json:"shipping_method"`
	CouponCode            string               `json:"coupon_code,omitempty"`
	InvalidCoupon         bool                 `json:"invalid_coupon"`
	ItemCount             int                  `json:"item_count"`
	FreeShippingAvailable bool                 `json:"free_shipping_available"`
	AmountForFreeShipping string               `json:"amount_for_free_shipping"`
}

// Result reports a placement attempt. Failures carry a reason and leave all ledgers untouched.
type Result struct {
	Success     bool              `json:"success"`
	OrderID     string            `json:"order_id,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Order       *orders.Order     `json:"order,omitempty"`
}

// CatalogReader returns the catalog snapshot currently in effect.
type CatalogReader interface {
	Snapshot() *catalog.Snapshot
}

type Service interface {
	Quote(ctx context.Context, method enums.ShippingMethod, couponCode string) (Quote, error)
	PlaceOrder(ctx context.Context, form OrderForm) (Result, error)
}

type ServiceParams struct {
	Cart    cart.Service
	Catalog CatalogReader
	Coupons coupons.Service
	Loyalty loyalty.Service
	Orders  orders.Service
	Gate    auth.Gate
	Events  events.Publisher
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	cart    cart.Service
	catalog CatalogReader
	coupons coupons.Service
	loyalty loyalty.Service
	orders  orders.Service
	gate    auth.Gate
	events  events.Publisher
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Cart == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart service is required")
	case params.Catalog == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog reader is required")
	case params.Coupons == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon service is required")
	case params.Loyalty == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loyalty service is required")
	case params.Orders == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders service is required")
	case params.Gate == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth gate is required")
	}
	if params.Events == nil {
		params.Events = events.Discard
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		cart:    params.Cart,
		catalog: params.Catalog,
		coupons: params.Coupons,
		loyalty: params.Loyalty,
		orders:  params.Orders,
		gate:    params.Gate,
		events:  params.Events,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     params.Now,
	}, nil
}

// resolveCoupon validates code against the wallet. A rejected code yields nil and invalid=true.
func (s *service) resolveCoupon(ctx context.Context, code string) (*coupons.Definition, bool, error) {
	if coupons.Normalize(code) == "" {
		return nil, false, nil
	}
	def, err := s.coupons.Validate(ctx, code)
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &def, false, nil
}

func (s *service) Quote(ctx context.Context, method enums.ShippingMethod, couponCode string) (Quote, error) {
	if method == "" {
		method = enums.ShippingMethodStandard
	}
	lines, err := s.cart.Lines(ctx)
	if err != nil {
		return Quote{}, err
	}
	coupon, invalid, err := s.resolveCoupon(ctx, couponCode)
	if err != nil {
		return Quote{}, err
	}
	totals := CalculateTotals(lines, s.catalog.Snapshot(), method, coupon)
	return Quote{
		Totals:                totals,
		Method:                method,
		CouponCode:            coupons.Normalize(couponCode),
		InvalidCoupon:         invalid,
		ItemCount:             cart.Count(lines),
		FreeShippingAvailable: IsFreeShippingAvailable(totals.Subtotal),
		AmountForFreeShipping: AmountForFreeShipping(totals.Subtotal).StringFixed(2),
	}, nil
}

// PlaceOrder recomputes totals from the stored cart, records the order, awards points,
// consumes the applied coupon, clears the cart and announces order.placed.
func (s *service) PlaceOrder(ctx context.Context, form OrderForm) (Result, error) {
	if err := s.gate.Require(ctx); err != nil {
		return Result{}, err
	}
	form = form.normalize()
	if fieldErrors := form.Validate(); fieldErrors != nil {
		return s.reject(ctx, Result{Reason: ReasonInvalidForm, FieldErrors: fieldErrors}), nil
	}

	lines, err := s.cart.Lines(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(lines) == 0 {
		return s.reject(ctx, Result{Reason: ReasonEmptyCart}), nil
	}

	snap := s.catalog.Snapshot()
	if err := pkgcheckout.ValidateQuantities(quantityInputs(lines, snap)); err != nil {
		var details map[string]string
		if typed := pkgerrors.As(err); typed != nil {
			details = map[string]string{"items": typed.Message()}
		}
		return s.reject(ctx, Result{Reason: ReasonQuantityLimit, FieldErrors: details}), nil
	}

	coupon, invalid, err := s.resolveCoupon(ctx, form.CouponCode)
	if err != nil {
		return Result{}, err
	}
	if invalid {
		return s.reject(ctx, Result{Reason: ReasonInvalidCoupon, FieldErrors: map[string]string{"couponCode": ReasonInvalidCoupon}}), nil
	}

	totals := CalculateTotals(lines, snap, form.ShippingMethod, coupon)
	now := s.now()
	id, err := s.orders.NextID(ctx, now)
	if err != nil {
		return Result{}, err
	}
	order := buildOrder(id, now, form, lines, snap, totals)

	if err := s.orders.Append(ctx, order); err != nil {
		return Result{}, err
	}
	if _, err := s.loyalty.Award(ctx, order.PointsEarned, "Order #"+order.ID); err != nil {
		return Result{}, err
	}
	if coupon != nil {
		if err := s.coupons.Consume(ctx, coupon.Code); err != nil {
			return Result{}, err
		}
	}
	if err := s.cart.Clear(ctx); err != nil {
		return Result{}, err
	}

	s.events.Publish(ctx, events.TypeOrderPlaced, order)
	s.metrics.ObservePlaced(order.Total.InexactFloat64(), order.PointsEarned)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
		"points":   order.PointsEarned,
	})
	s.logg.Info(logCtx, "order placed")

	return Result{Success: true, OrderID: order.ID, Order: &order}, nil
}

func (s *service) reject(ctx context.Context, res Result) Result {
	s.metrics.IncRejected()
	s.logg.Info(s.logg.WithField(ctx, "reason", res.Reason), "checkout rejected")
	res.Success = false
	return res
}

func quantityInputs(lines []cart.Line, snap *catalog.Snapshot) []pkgcheckout.QuantityValidationInput {
	out := make([]pkgcheckout.QuantityValidationInput, 0, len(lines))
	for _, l := range lines {
		in := pkgcheckout.QuantityValidationInput{ProductID: l.ProductID, Max: cart.MaxQuantity, Quantity: l.Quantity}
		if p, ok := snap.ByID(l.ProductID); ok {
			in.ProductName = p.Name
		}
		out = append(out, in)
	}
	return out
}

func buildOrder(id string, now time.Time, form OrderForm, lines []cart.Line, snap *catalog.Snapshot, totals Totals) orders.Order {
	items := make([]orders.Item, 0, len(lines))
	for _, l := range lines {
		item := orders.Item{ProductID: l.ProductID, Name: catalog.DefaultName, Quantity: l.Quantity, Price: l.UnitPrice}
		if p, ok := snap.ByID(l.ProductID); ok {
			item.Name = p.Name
			if item.Price.IsZero() {
				item.Price = p.EffectivePrice()
			}
		}
		items = append(items, item)
	}

	var code *string
	if totals.AppliedCoupon != nil {
		c := totals.AppliedCoupon.Code
		code = &c
	}
	return orders.Order{
		ID:       id,
		PlacedAt: now.UTC(),
		Customer: orders.Customer{
			Name:    form.Name,
			Email:   form.Email,
			Phone:   form.Phone,
			Address: form.Address,
			City:    form.City,
			ZipCode: form.ZipCode,
			Country: form.Country,
		},
		Items:          items,
		Subtotal:       totals.Subtotal,
		ShippingFee:    totals.Shipping,
		ShippingMethod: form.ShippingMethod,
		Discount:       totals.Discount,
		Coupon:         code,
		Total:          totals.Total,
		PaymentMethod:  form.PaymentMethod,
		Status:         enums.OrderStatusPending,
		PointsEarned:   loyalty.PointsFor(totals.Total),
	}
}
