package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fabric0de/sentrybridge/internal/config"
	"github.com/fabric0de/sentrybridge/internal/relay"
	"github.com/fabric0de/sentrybridge/internal/slack"
	"github.com/fabric0de/sentrybridge/internal/storage"
)

// maxPayloadBytes caps inbound alert payload size.
const maxPayloadBytes = 1 << 20

// Handlers holds the JSON API handlers.
type Handlers struct {
	cfgMgr *config.Manager
	store  *storage.Store
	relay  *relay.Service
}

// NewHandlers creates API handlers.
func NewHandlers(cfgMgr *config.Manager, store *storage.Store, relaySvc *relay.Service) *Handlers {
	return &Handlers{
		cfgMgr: cfgMgr,
		store:  store,
		relay:  relaySvc,
	}
}

type registerRequest struct {
	DeliveryTarget string `json:"deliveryTarget"`
	MessageStyle   string `json:"messageStyle"`
}

type registerResponse struct {
	WebhookURL string `json:"webhookUrl"`
}

// RegisterWebhook creates a registration and returns the relay URL.
func (h *Handlers) RegisterWebhook(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !isHTTPURL(req.DeliveryTarget) {
		writeError(w, http.StatusBadRequest, "deliveryTarget must be a valid http(s) URL")
		return
	}

	style, err := slack.ParseStyle(req.MessageStyle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "messageStyle must be basic, detailed, or grouped")
		return
	}

	wh, err := h.store.CreateWebhook(r.Context(), req.DeliveryTarget, string(style))
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateTarget) {
			writeError(w, http.StatusBadRequest, "delivery target is already registered")
			return
		}
		slog.Error("failed to create webhook", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create webhook")
		return
	}

	base := strings.TrimRight(h.cfgMgr.Get().System.PublicBaseURL, "/")
	slog.Info("webhook registered", "webhook_id", wh.ID, "style", wh.Style)

	writeJSON(w, http.StatusOK, registerResponse{
		WebhookURL: base + "/webhooks/" + wh.ID,
	})
}

// RelayEvent accepts a Sentry alert payload and relays it to the
// registered delivery target.
func (h *Handlers) RelayEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := h.relay.Relay(r.Context(), id, payload); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		slog.Error("failed to relay event", "webhook_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type statsResponse struct {
	WebhookCount int64 `json:"webhookCount"`
	EventCount   int64 `json:"eventCount"`
}

// Stats returns aggregate webhook and event counts.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Stats(r.Context())
	if err != nil {
		slog.Error("failed to read stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		WebhookCount: st.WebhookCount,
		EventCount:   st.EventCount,
	})
}

func isHTTPURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
