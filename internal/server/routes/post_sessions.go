package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// CreateSessionHandler starts a new console session
func CreateSessionHandler(c echo.Context) error {
	type createSessionResponse struct {
		Message string         `json:"message"`
		Session *session.State `json:"session,omitempty"`
	}

	s, err := appOf(c).Registry.Create()
	if err != nil {
		logger.Error("Failed to create session", "err", err)
		return c.JSON(http.StatusInternalServerError, createSessionResponse{
			Message: "Internal server error",
		})
	}

	state := s.State()
	return c.JSON(http.StatusCreated, createSessionResponse{
		Message: "Session created successfully",
		Session: &state,
	})
}
