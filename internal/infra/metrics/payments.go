package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		callbacksTotal,
		paymentsRevenueTotal,
		netCancelsTotal,
		approvalLatencyMs,
	)
}

var (
	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Gateway callbacks by terminal state (SETTLED/REJECTED/...).",
		},
		[]string{"state", "channel"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total monetary value of settled payments, labeled by currency.",
		},
		[]string{"currency"},
	)

	netCancelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_net_cancels_total",
			Help: "Compensating net-cancel attempts by result (ok/failed/dropped).",
		},
		[]string{"result"},
	)

	approvalLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_approval_latency_ms",
			Help:    "Gateway approval call latency distribution in milliseconds.",
			Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
	)
)

func IncCallback(state, channel string) {
	callbacksTotal.WithLabelValues(norm(state), norm(channel)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func IncNetCancel(result string) {
	netCancelsTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveApprovalLatency(ms int64) {
	approvalLatencyMs.Observe(float64(ms))
}
