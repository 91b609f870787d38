package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func GetSelectionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionOf(c).SelectionView())
}
