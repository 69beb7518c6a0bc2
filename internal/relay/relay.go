// Package relay runs the transform-and-relay pipeline: look up the
// registration, render the Sentry payload per its message style,
// deliver to Slack, and record one event occurrence.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fabric0de/sentrybridge/internal/sentry"
	"github.com/fabric0de/sentrybridge/internal/slack"
	"github.com/fabric0de/sentrybridge/internal/storage"
)

// ErrDeliveryFailed marks an outbound send that got a non-2xx response
// or a transport error. There are no retries; the alert source is
// expected to retry per its own policy.
var ErrDeliveryFailed = errors.New("delivery failed")

// Store is the subset of the record store the pipeline depends on.
type Store interface {
	GetWebhook(ctx context.Context, id string) (storage.Webhook, error)
	RecordEvent(ctx context.Context, webhookID, level string) error
	EventCount(ctx context.Context, webhookID string) (int64, error)
}

// Service wires the record store to a deliverer.
type Service struct {
	store     Store
	deliverer Deliverer
}

// NewService creates the relay pipeline service.
func NewService(store Store, deliverer Deliverer) *Service {
	return &Service{store: store, deliverer: deliverer}
}

// Relay processes one inbound alert payload for the webhook id.
// A storage.ErrNotFound return means the id is unknown and the
// deliverer was never invoked. A failed event-count write after
// successful delivery is logged and swallowed so an already-delivered
// alert is not reported as failed.
func (s *Service) Relay(ctx context.Context, id string, payload []byte) error {
	wh, err := s.store.GetWebhook(ctx, id)
	if err != nil {
		return err
	}

	ev, err := sentry.Parse(payload)
	if err != nil {
		return fmt.Errorf("relay %s: %w", id, err)
	}

	style, err := slack.ParseStyle(wh.Style)
	if err != nil {
		// Stored styles predate validation only in hand-edited
		// databases; fall back rather than dropping the alert.
		slog.Warn("stored message style invalid, using basic", "webhook_id", wh.ID, "style", wh.Style)
		style = slack.StyleBasic
	}

	var occurrences int64
	if style == slack.StyleGrouped {
		occurrences, err = s.store.EventCount(ctx, wh.ID)
		if err != nil {
			slog.Warn("failed to read occurrence count", "webhook_id", wh.ID, "error", err)
			occurrences = 0
		}
	}

	msg := slack.Render(style, ev, occurrences)

	if err := s.deliverer.Deliver(ctx, wh.TargetURL, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if err := s.store.RecordEvent(ctx, wh.ID, ev.LevelOrUnknown()); err != nil {
		slog.Error("failed to record event", "webhook_id", wh.ID, "error", err)
	} else {
		slog.Info("alert relayed",
			"webhook_id", wh.ID,
			"style", string(style),
			"level", ev.LevelOrUnknown(),
		)
	}
	return nil
}
