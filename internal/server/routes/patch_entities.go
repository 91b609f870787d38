package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// EditEntityHandler forwards a partial update to the backend. The body is a
// plain JSON object of the fields to change.
func EditEntityHandler(c echo.Context) error {
	entityID := c.Param("id")
	if entityID == "" {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}

	fields := map[string]any{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &fields); err != nil || len(fields) == 0 {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}
	delete(fields, "id")

	res, err := appOf(c).API.UpdateEntity(c.Request().Context(), entityID, fields)
	if err != nil {
		return backendError(c, "update entity", err)
	}
	return c.JSON(http.StatusOK, res)
}
