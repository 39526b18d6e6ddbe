package app

import (
	"aishop/internal/app/handler"
	mw "aishop/internal/app/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

func (a *App) Router() http.Handler {
	return newRouter(a)
}

func newRouter(a *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(mw.Log(a.logger))
	r.Use(mw.Metrics)

	gateway := alice.New(mw.Apikey(a.config.Gateway.APIKey))
	customer := alice.New(mw.Auth(a.session))

	ch := handler.NewCallbackHandler(a.reconciler, a.config.Gateway.StorefrontURL)
	wh := handler.NewWalletHandler(a.wallets, a.ledger)

	r.Route("/api/sepay", func(r chi.Router) {
		r.Method(http.MethodPost, "/callback", gateway.ThenFunc(ch.Receive))
		r.Get("/callback", ch.Redirect)
	})

	r.Route("/api/wallet", func(r chi.Router) {
		r.Method(http.MethodGet, "/", customer.ThenFunc(wh.Balance))
		r.Method(http.MethodGet, "/transactions", customer.ThenFunc(wh.Transactions))
		r.Get("/bonus-tiers", wh.BonusTiers)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
