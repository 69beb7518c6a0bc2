// Package web exposes the HTTP interface: webhook registration, the
// per-id relay endpoint, aggregate stats, and a health check.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fabric0de/sentrybridge/internal/config"
	"github.com/fabric0de/sentrybridge/internal/relay"
	"github.com/fabric0de/sentrybridge/internal/storage"
)

// NewRouter sets up all routes and returns the http.Handler.
func NewRouter(cfgMgr *config.Manager, store *storage.Store, relaySvc *relay.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	handlers := NewHandlers(cfgMgr, store, relaySvc)
	health := NewHealthHandler(store)

	r.Get("/healthz", health.ServeHTTP)

	r.Post("/webhooks", handlers.RegisterWebhook)
	r.Post("/webhooks/{id}", handlers.RelayEvent)
	r.Get("/stats", handlers.Stats)

	return r
}
