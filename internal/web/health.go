package web

import (
	"net/http"
	"time"

	"github.com/fabric0de/sentrybridge/internal/storage"
)

var startTime = time.Now()

const version = "0.1.0"

// HealthHandler serves the /healthz endpoint.
type HealthHandler struct {
	store *storage.Store
}

func NewHealthHandler(store *storage.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":         "ok",
		"version":        version,
		"uptime_seconds": int(time.Since(startTime).Seconds()),
	}

	if st, err := h.store.Stats(r.Context()); err == nil {
		resp["webhook_count"] = st.WebhookCount
	}

	writeJSON(w, http.StatusOK, resp)
}
