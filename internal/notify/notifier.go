// Package notify delivers generated replies to channel callback URLs.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DeliveryTimeout bounds a single callback attempt.
const DeliveryTimeout = 10 * time.Second

// Event is the callback payload posted to the channel.
type Event struct {
	EventType string `json:"event_type"`
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
}

// Notifier posts new-message events to channel callback URLs. Delivery is
// best-effort: any failure is reported as false, never as an error.
type Notifier struct {
	client *http.Client
	logger *slog.Logger
}

// NewNotifier creates a Notifier with the fixed delivery timeout.
func NewNotifier(log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		client: &http.Client{Timeout: DeliveryTimeout},
		logger: log.With(slog.String("service", "notify")),
	}
}

// Deliver posts the reply text for chatID to callbackURL, bearer-authenticated
// with callbackToken. Returns true on any 2xx response.
func (n *Notifier) Deliver(ctx context.Context, callbackURL, callbackToken, chatID, text string) bool {
	payload, err := json.Marshal(Event{
		EventType: "new_message",
		ChatID:    chatID,
		Text:      text,
	})
	if err != nil {
		n.logger.Error("encode callback payload", slog.Any("error", err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(payload))
	if err != nil {
		n.logger.Warn("build callback request", slog.String("url", callbackURL), slog.Any("error", err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+callbackToken)

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("callback delivery failed", slog.String("url", callbackURL), slog.Any("error", err))
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		n.logger.Warn("callback rejected",
			slog.String("url", callbackURL),
			slog.Int("status", resp.StatusCode),
		)
		return false
	}
	return true
}
