package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StoreMetrics counts settled and failed wallet/checkout operations by
// externally-visible outcome (ok, insufficient_funds, discount_exhausted, ...).
type StoreMetrics struct {
	Checkouts     *prometheus.CounterVec
	DiscountHooks *prometheus.CounterVec
	Topups        *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamestore",
		Name:      "checkouts_total",
		Help:      "Total number of checkout attempts.",
	}, []string{"outcome"})
	discountHooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamestore",
		Name:      "order_discount_applications_total",
		Help:      "Total number of post-hoc discount applications.",
	}, []string{"outcome"})
	topups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamestore",
		Name:      "wallet_topups_total",
		Help:      "Total number of wallet top-up attempts.",
	}, []string{"outcome"})

	reg.MustRegister(checkouts, discountHooks, topups)

	return &StoreMetrics{Checkouts: checkouts, DiscountHooks: discountHooks, Topups: topups}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
