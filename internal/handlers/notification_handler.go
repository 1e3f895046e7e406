package handlers

import (
	"net/http"

	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/notify"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	engine *notify.Engine
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(engine *notify.Engine) *NotificationHandler {
	return &NotificationHandler{engine: engine}
}

// RegisterNotificationRoutes registers notification routes, all guarded
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/show", h.Show, auth)
	g.PATCH("/read", h.Read, auth)
}

// Show returns the actor's outstanding notifications, purging previously
// read ones first.
func (h *NotificationHandler) Show(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	views, err := h.engine.ListFor(c.Request().Context(), actor.Hex())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, views)
}

// Read marks one of the actor's notifications as read. It will be purged on
// the next fetch.
func (h *NotificationHandler) Read(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.ReadNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	if err := h.engine.MarkRead(actor.Hex(), req.ID); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Notification marked as read.")
}
