package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgatehq/chatgate/internal/channel"
)

func newChannelTestServer() *echo.Echo {
	e := echo.New()
	svc := channel.NewService(nil, channel.NewMemoryStore(nil))
	NewChannelHandler(slog.Default(), svc).Register(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const createBody = `{"name":"Test Channel","channel_url":"https://example.com/webhook","channel_token":"channel_token_123"}`

func TestCreateChannelDisclosesSecretOnce(t *testing.T) {
	e := newChannelTestServer()

	rec := doJSON(e, http.MethodPost, "/api/channels", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created CreatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Test Channel", created.Name)
	assert.NotEmpty(t, created.ID)
	assert.GreaterOrEqual(t, len(created.SecretToken), 16)

	// Subsequent reads never return the secret.
	rec = doJSON(e, http.MethodGet, "/api/channels/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.NotContains(t, fetched, "secret_token")

	rec = doJSON(e, http.MethodGet, "/api/channels", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), created.SecretToken)
}

func TestCreateChannelValidation(t *testing.T) {
	e := newChannelTestServer()

	for _, body := range []string{
		`{"channel_url":"https://x","channel_token":"t"}`,
		`{"name":"a","channel_token":"t"}`,
		`{"name":"a","channel_url":"https://x"}`,
	} {
		rec := doJSON(e, http.MethodPost, "/api/channels", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestCreateChannelsSecretUniqueness(t *testing.T) {
	e := newChannelTestServer()

	secrets := map[string]struct{}{}
	for i := 0; i < 3; i++ {
		rec := doJSON(e, http.MethodPost, "/api/channels", createBody)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created CreatedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		secrets[created.SecretToken] = struct{}{}
	}
	assert.Len(t, secrets, 3)
}

func TestUpdateChannel(t *testing.T) {
	e := newChannelTestServer()

	rec := doJSON(e, http.MethodPost, "/api/channels", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created CreatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodPut, "/api/channels/"+created.ID,
		`{"name":"Renamed","channel_url":"https://example.com/v2","channel_token":"t2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated["name"])
	assert.NotContains(t, updated, "secret_token")
}

func TestChannelNotFound(t *testing.T) {
	e := newChannelTestServer()

	rec := doJSON(e, http.MethodGet, "/api/channels/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodPut, "/api/channels/nope",
		`{"name":"a","channel_url":"https://x","channel_token":"t"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/channels/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteChannel(t *testing.T) {
	e := newChannelTestServer()

	rec := doJSON(e, http.MethodPost, "/api/channels", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created CreatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodDelete, "/api/channels/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/api/channels/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
