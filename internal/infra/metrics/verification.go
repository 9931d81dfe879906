package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(verificationsTotal)
}

var verificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "identity_verifications_total",
		Help: "Identity verification attempts by outcome.",
	},
	[]string{"outcome", "flavor"},
)

func IncVerification(outcome, flavor string) {
	verificationsTotal.WithLabelValues(norm(outcome), norm(flavor)).Inc()
}
