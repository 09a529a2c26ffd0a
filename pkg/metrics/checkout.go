package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics tracks placed orders and loyalty awards.
type CheckoutMetrics struct {
	orders  *prometheus.CounterVec
	revenue prometheus.Counter
	points  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_revenue_total",
		Help: "Sum of placed order totals.",
	})
	points := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_points_awarded_total",
		Help: "Loyalty points awarded for placed orders.",
	})
	reg.MustRegister(orders, revenue, points)
	return &CheckoutMetrics{orders: orders, revenue: revenue, points: points}
}

// ObservePlaced records a successful order.
func (c *CheckoutMetrics) ObservePlaced(total float64, points int64) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues("placed").Inc()
	c.revenue.Add(total)
	if points > 0 {
		c.points.Add(float64(points))
	}
}

// IncRejected records a checkout that did not produce an order.
func (c *CheckoutMetrics) IncRejected() {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues("rejected").Inc()
}
