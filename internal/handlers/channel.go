package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatgatehq/chatgate/internal/channel"
)

// ChannelHandler exposes channel registration and lifecycle endpoints.
type ChannelHandler struct {
	service *channel.Service
	logger  *slog.Logger
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(log *slog.Logger, service *channel.Service) *ChannelHandler {
	return &ChannelHandler{
		service: service,
		logger:  log.With(slog.String("handler", "channel")),
	}
}

// Register mounts the channel CRUD routes.
func (h *ChannelHandler) Register(e *echo.Echo) {
	group := e.Group("/api/channels")
	group.POST("", h.CreateChannel)
	group.GET("", h.ListChannels)
	group.GET("/:id", h.GetChannel)
	group.PUT("/:id", h.UpdateChannel)
	group.DELETE("/:id", h.DeleteChannel)
}

// CreatedResponse is the registration response. The secret token is disclosed
// here and nowhere else.
type CreatedResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SecretToken string `json:"secret_token"`
}

// CreateChannel godoc
// @Summary Register a channel
// @Description Registers a channel and returns its generated webhook secret (disclosed only once)
// @Tags channels
// @Accept json
// @Produce json
// @Param payload body channel.CreateRequest true "Channel registration payload"
// @Success 201 {object} CreatedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/channels [post]
func (h *ChannelHandler) CreateChannel(c echo.Context) error {
	var req channel.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, channel.ErrInvalidRequest) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("create channel failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, CreatedResponse{
		ID:          created.ID,
		Name:        created.Name,
		SecretToken: created.SecretToken,
	})
}

// ListChannels godoc
// @Summary List channels
// @Description Lists registered channels without their secret tokens
// @Tags channels
// @Produce json
// @Success 200 {array} channel.Channel
// @Failure 500 {object} ErrorResponse
// @Router /api/channels [get]
func (h *ChannelHandler) ListChannels(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	redacted := make([]channel.Channel, len(items))
	for i, ch := range items {
		redacted[i] = ch.Redacted()
	}
	return c.JSON(http.StatusOK, redacted)
}

// GetChannel godoc
// @Summary Get a channel
// @Description Gets a channel by id without its secret token
// @Tags channels
// @Produce json
// @Param id path string true "Channel ID"
// @Success 200 {object} channel.Channel
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/channels/{id} [get]
func (h *ChannelHandler) GetChannel(c echo.Context) error {
	ch, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, channel.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "channel not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ch.Redacted())
}

// UpdateChannel godoc
// @Summary Update a channel
// @Description Updates name, callback URL and callback token; the secret token is immutable
// @Tags channels
// @Accept json
// @Produce json
// @Param id path string true "Channel ID"
// @Param payload body channel.UpdateRequest true "Channel update payload"
// @Success 200 {object} channel.Channel
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/channels/{id} [put]
func (h *ChannelHandler) UpdateChannel(c echo.Context) error {
	var req channel.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	updated, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, channel.ErrInvalidRequest):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, channel.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "channel not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, updated.Redacted())
}

// DeleteChannel godoc
// @Summary Delete a channel
// @Description Deletes a channel; its dialogues are orphaned, not removed
// @Tags channels
// @Produce json
// @Param id path string true "Channel ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/channels/{id} [delete]
func (h *ChannelHandler) DeleteChannel(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, channel.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "channel not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
