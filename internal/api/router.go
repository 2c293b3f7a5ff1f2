package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/napatw/gamestore/internal/infra/metrics"
)

// NewRouter wires all storefront endpoints. Auth, catalog CRUD and admin
// surfaces live in other services; the only identity input here is the
// verified X-User-ID header.
func NewRouter(checkoutSvc CheckoutService, walletSvc WalletService, m *metrics.StoreMetrics) http.Handler {
	h := NewHandler(checkoutSvc, walletSvc, m)
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Identity)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders/checkout", h.CheckoutHandler)
		r.Patch("/orders/{orderId}/discount", h.ApplyDiscountHandler)
		r.Get("/wallet", h.WalletDataHandler)
		r.Post("/wallet/topup", h.TopupHandler)
	})

	return r
}
