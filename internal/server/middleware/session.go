package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
)

// RequireSession loads the session named by the :sid param into the
// AppContext and answers 404 for unknown ids.
func RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cc := c.(*AppContext)
		s, err := cc.App.Registry.Get(c.Param("sid"))
		if errors.Is(err, session.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "Session not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		}
		cc.Session = s
		return next(cc)
	}
}

// RequireExporter answers 503 when snapshot export is not configured.
func RequireExporter(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.(*AppContext).App.Exporter == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"message": "Graph export is not configured"})
		}
		return next(c)
	}
}
