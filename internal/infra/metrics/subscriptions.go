package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(subscriptionsGranted, subscriptionsExpired, storageDegraded)
}

var (
	subscriptionsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_granted_total",
			Help: "Plan grants by tier and source (payment/points/grant).",
		},
		[]string{"tier", "source"},
	)

	subscriptionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscriptions swept back to the free tier.",
		},
	)

	storageDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_degraded_total",
			Help: "Non-critical storage writes that failed and were skipped.",
		},
		[]string{"op"},
	)
)

func IncSubscriptionGranted(tier, source string) {
	subscriptionsGranted.WithLabelValues(norm(tier), norm(source)).Inc()
}

func IncSubscriptionsExpired(n int) {
	subscriptionsExpired.Add(float64(n))
}

func IncStorageDegraded(op string) {
	storageDegraded.WithLabelValues(norm(op)).Inc()
}
