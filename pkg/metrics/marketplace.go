package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics records the business counters exposed at /metrics.
type MarketplaceMetrics struct {
	ordersPlaced       *prometheus.CounterVec
	ordersCancelled    prometheus.Counter
	paymentsVerified   *prometheus.CounterVec
	hubArrivals        *prometheus.CounterVec
	notificationFanout *prometheus.CounterVec
}

// NewMarketplaceMetrics registers the marketplace metrics on the provided registerer.
func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	if reg == nil {
		return &MarketplaceMetrics{}
	}
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders successfully placed, by product kind.",
	}, []string{"kind"})
	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders cancelled with stock restored.",
	})
	paymentsVerified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_verified_total",
		Help: "Payment verification attempts, by result.",
	}, []string{"result"})
	hubArrivals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_arrival_otp_total",
		Help: "Hub arrival OTP verification attempts, by result.",
	}, []string{"result"})
	notificationFanout := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_fanout_total",
		Help: "Notification deliveries, by channel and result.",
	}, []string{"channel", "result"})
	reg.MustRegister(ordersPlaced, ordersCancelled, paymentsVerified, hubArrivals, notificationFanout)
	return &MarketplaceMetrics{
		ordersPlaced:       ordersPlaced,
		ordersCancelled:    ordersCancelled,
		paymentsVerified:   paymentsVerified,
		hubArrivals:        hubArrivals,
		notificationFanout: notificationFanout,
	}
}

// IncOrderPlaced increments the placed-order counter for the product kind.
func (m *MarketplaceMetrics) IncOrderPlaced(kind string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncOrderCancelled increments the cancelled-order counter.
func (m *MarketplaceMetrics) IncOrderCancelled() {
	if m == nil || m.ordersCancelled == nil {
		return
	}
	m.ordersCancelled.Inc()
}

// IncPaymentVerified records one payment verification attempt.
func (m *MarketplaceMetrics) IncPaymentVerified(result string) {
	if m == nil || m.paymentsVerified == nil {
		return
	}
	m.paymentsVerified.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncHubArrival records one hub arrival OTP attempt.
func (m *MarketplaceMetrics) IncHubArrival(result string) {
	if m == nil || m.hubArrivals == nil {
		return
	}
	m.hubArrivals.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncNotification records one notification delivery attempt.
func (m *MarketplaceMetrics) IncNotification(channel, result string) {
	if m == nil || m.notificationFanout == nil {
		return
	}
	m.notificationFanout.WithLabelValues(normalizeLabel(channel), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
