package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fabric0de/sentrybridge/internal/slack"
)

// Deliverer sends a rendered message to a delivery target.
type Deliverer interface {
	Deliver(ctx context.Context, target string, msg slack.Message) error
}

// HTTPDeliverer posts messages to Slack incoming webhooks.
type HTTPDeliverer struct {
	client *http.Client
}

// NewHTTPDeliverer creates a deliverer whose outbound calls are bounded
// by timeout.
func NewHTTPDeliverer(timeout time.Duration) *HTTPDeliverer {
	return &HTTPDeliverer{
		client: &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDeliverer) Deliver(ctx context.Context, target string, msg slack.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack: unexpected status %d", resp.StatusCode)
	}
	return nil
}
