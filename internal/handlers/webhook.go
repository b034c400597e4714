package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chatgatehq/chatgate/internal/webhook"
)

// WebhookHandler exposes the inbound message endpoint.
type WebhookHandler struct {
	processor *webhook.Processor
	logger    *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(log *slog.Logger, processor *webhook.Processor) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    log.With(slog.String("handler", "webhook")),
	}
}

// Register mounts the webhook route.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/api/webhook/new_message", h.HandleNewMessage)
}

// WebhookResponse is the terminal outcome reported to the channel.
type WebhookResponse struct {
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
}

// HandleNewMessage godoc
// @Summary Handle inbound channel message
// @Description Authenticates the channel secret and runs the message through the dialogue state machine
// @Tags webhook
// @Accept json
// @Produce json
// @Param payload body webhook.Inbound true "Inbound message"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/webhook/new_message [post]
func (h *WebhookHandler) HandleNewMessage(c echo.Context) error {
	secret, ok := bearerToken(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	var msg webhook.Inbound
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.processor.Process(c.Request().Context(), secret, msg)
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		case errors.Is(err, webhook.ErrInvalidPayload):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, webhook.ErrGenerationFailed):
			h.logger.Error("reply generation failed",
				slog.String("message_id", msg.MessageID),
				slog.Any("error", err),
			)
			return echo.NewHTTPError(http.StatusBadGateway, "reply generation failed")
		default:
			h.logger.Error("webhook processing failed",
				slog.String("message_id", msg.MessageID),
				slog.Any("error", err),
			)
			return echo.NewHTTPError(http.StatusInternalServerError, "message processing failed")
		}
	}

	return c.JSON(http.StatusOK, WebhookResponse{
		Status:   string(result.Status),
		Response: result.Response,
	})
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
