package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", g.handleHealth())
	r.Post("/webhooks/keel", g.handleWebhook())

	if g.registry != nil {
		r.Get("/metrics", promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{}).ServeHTTP)
	}

	return r
}
