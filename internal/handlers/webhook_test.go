package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgatehq/chatgate/internal/channel"
	"github.com/chatgatehq/chatgate/internal/dialogue"
	"github.com/chatgatehq/chatgate/internal/generate"
	"github.com/chatgatehq/chatgate/internal/webhook"
)

type noopDeliverer struct{ ok bool }

func (d *noopDeliverer) Deliver(ctx context.Context, callbackURL, callbackToken, chatID, text string) bool {
	return d.ok
}

type failingGenerator struct{}

func (failingGenerator) Reply(ctx context.Context, history []dialogue.Message) (string, error) {
	return "", errors.New("model unavailable")
}

type failingConversationStore struct{}

func (failingConversationStore) LoadOrCreate(ctx context.Context, channelID, chatID string) (dialogue.Dialogue, error) {
	return dialogue.Dialogue{}, errors.New("connection refused")
}

func (failingConversationStore) Save(ctx context.Context, d dialogue.Dialogue) error {
	return errors.New("connection refused")
}

func newWebhookServerWith(t *testing.T, conversations webhook.ConversationStore, gen webhook.Generator) (*echo.Echo, string) {
	t.Helper()

	channels := channel.NewService(nil, channel.NewMemoryStore(nil))
	created, err := channels.Create(context.Background(), channel.CreateRequest{
		Name:          "Test Channel",
		CallbackURL:   "https://x/cb",
		CallbackToken: "cb-token",
	})
	require.NoError(t, err)

	processor := webhook.NewProcessor(nil, channels, conversations, gen, &noopDeliverer{ok: true})

	e := echo.New()
	NewWebhookHandler(slog.Default(), processor).Register(e)
	return e, created.SecretToken
}

func newWebhookTestServer(t *testing.T) (*echo.Echo, string) {
	t.Helper()
	return newWebhookServerWith(t,
		dialogue.NewService(nil, dialogue.NewMemoryStore()),
		generate.NewStaticGenerator("canned reply"),
	)
}

func postWebhook(e *echo.Echo, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/new_message", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if secret != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+secret)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const validPayload = `{"message_id":"m1","chat_id":"c1","text":"hi","message_sender":"customer"}`

func TestWebhookProcessed(t *testing.T) {
	e, secret := newWebhookTestServer(t)

	rec := postWebhook(e, secret, validPayload)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processed", resp.Status)
	assert.Equal(t, "canned reply", resp.Response)

	// Identical resend is acknowledged without a new reply.
	rec = postWebhook(e, secret, validPayload)
	require.Equal(t, http.StatusOK, rec.Code)
	var resend WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resend))
	assert.Equal(t, "already_processed", resend.Status)
	assert.Empty(t, resend.Response)
}

func TestWebhookEmployeeIgnored(t *testing.T) {
	e, secret := newWebhookTestServer(t)

	rec := postWebhook(e, secret, `{"message_id":"m1","chat_id":"c1","text":"note","message_sender":"employee"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "employee_message_ignored", resp.Status)
}

func TestWebhookUnauthorized(t *testing.T) {
	e, _ := newWebhookTestServer(t)

	rec := postWebhook(e, "bad-secret", validPayload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(e, "", validPayload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookGenerationFailureIs502(t *testing.T) {
	e, secret := newWebhookServerWith(t,
		dialogue.NewService(nil, dialogue.NewMemoryStore()),
		failingGenerator{},
	)

	rec := postWebhook(e, secret, validPayload)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWebhookStoreFailureIs500(t *testing.T) {
	e, secret := newWebhookServerWith(t,
		failingConversationStore{},
		generate.NewStaticGenerator("canned reply"),
	)

	rec := postWebhook(e, secret, validPayload)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookInvalidPayload(t *testing.T) {
	e, secret := newWebhookTestServer(t)

	rec := postWebhook(e, secret, `{"chat_id":"c1","text":"hi","message_sender":"customer"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postWebhook(e, secret, `{"message_id":"m1","chat_id":"c1","message_sender":"customer"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postWebhook(e, secret, `{"message_id":"m1","chat_id":"c1","text":"hi","message_sender":"robot"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postWebhook(e, secret, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
