package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/server/middleware"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/api"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

type messageResponse struct {
	Message string `json:"message"`
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, messageResponse{Message: msg})
}

func appOf(c echo.Context) *middleware.App {
	return c.(*middleware.AppContext).App
}

func sessionOf(c echo.Context) *session.Session {
	return c.(*middleware.AppContext).Session
}

// backendError answers a failed backend call. Client errors of the backend
// are passed through with its message, everything else becomes 502.
func backendError(c echo.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return message(c, http.StatusRequestTimeout, "Request canceled")
	}

	status := api.StatusCode(err)
	var apiErr *api.Error
	if errors.As(err, &apiErr) && status >= 400 && status < 500 {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return message(c, status, msg)
	}

	logger.Error("[Server] Backend request failed", "op", op, "status", status, "err", err)
	return message(c, http.StatusBadGateway, "Backend request failed")
}
