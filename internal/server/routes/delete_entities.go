package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DeleteEntityHandler deletes an entity in the backend. The session keeps its
// merged copy; entities are never removed from a collection.
func DeleteEntityHandler(c echo.Context) error {
	type deleteEntityParams struct {
		EntityID string `param:"id" validate:"required"`
	}

	params := new(deleteEntityParams)
	if err := c.Bind(params); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}

	res, err := appOf(c).API.DeleteEntity(c.Request().Context(), params.EntityID)
	if err != nil {
		return backendError(c, "delete entity", err)
	}
	return c.JSON(http.StatusOK, res)
}
