package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// DeleteSessionHandler closes a session and removes its graph snapshots
func DeleteSessionHandler(c echo.Context) error {
	type deleteSessionParams struct {
		SessionID string `param:"sid" validate:"required"`
	}

	params := new(deleteSessionParams)
	if err := c.Bind(params); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}

	app := appOf(c)
	err := app.Registry.Delete(params.SessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return message(c, http.StatusNotFound, "Session not found")
	}
	if err != nil {
		logger.Error("Failed to delete session", "session_id", params.SessionID, "err", err)
		return message(c, http.StatusInternalServerError, "Internal server error")
	}

	if app.Exporter != nil {
		if err := app.Exporter.DeleteSession(c.Request().Context(), params.SessionID); err != nil {
			logger.Warn("Failed to delete session snapshots", "session_id", params.SessionID, "err", err)
		}
	}

	return message(c, http.StatusOK, "Session deleted successfully")
}
