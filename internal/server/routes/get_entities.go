package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetEntitiesHandler filters the session's entity list on the client side
func GetEntitiesHandler(c echo.Context) error {
	type getEntitiesQuery struct {
		SearchText string `query:"search_text"`
		Domain     string `query:"domain"`
	}

	q := new(getEntitiesQuery)
	if err := c.Bind(q); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}

	return c.JSON(http.StatusOK, sessionOf(c).Filter(q.SearchText, q.Domain))
}

// GetEntityHandler fetches one entity from the backend
func GetEntityHandler(c echo.Context) error {
	type getEntityParams struct {
		EntityID string `param:"id" validate:"required"`
	}

	params := new(getEntityParams)
	if err := c.Bind(params); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}

	entity, err := appOf(c).API.GetEntity(c.Request().Context(), params.EntityID)
	if err != nil {
		return backendError(c, "get entity", err)
	}
	return c.JSON(http.StatusOK, entity)
}

func GetEntityRelationshipsHandler(c echo.Context) error {
	type getEntityRelationshipsParams struct {
		EntityID string `param:"id" validate:"required"`
	}

	params := new(getEntityRelationshipsParams)
	if err := c.Bind(params); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}

	rels, err := appOf(c).API.GetEntityRelationships(c.Request().Context(), params.EntityID)
	if err != nil {
		return backendError(c, "get entity relationships", err)
	}
	return c.JSON(http.StatusOK, rels)
}
