package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/browser"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

// SearchEntitiesHandler runs the backend search and replaces the session's
// entity list with the result.
func SearchEntitiesHandler(c echo.Context) error {
	type searchEntitiesBody struct {
		SearchText string `json:"search_text"`
		Domain     string `json:"domain"`
	}

	type searchEntitiesResponse struct {
		Message  string        `json:"message"`
		Entities *browser.View `json:"entities,omitempty"`
	}

	data := new(searchEntitiesBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchEntitiesResponse{Message: "Invalid request body"})
	}

	view, err := sessionOf(c).Search(c.Request().Context(), data.SearchText, data.Domain)
	if err != nil {
		return backendError(c, "search entities", err)
	}
	return c.JSON(http.StatusOK, searchEntitiesResponse{
		Message:  "Search completed",
		Entities: &view,
	})
}

// CreateEntityHandler creates an entity in the backend and merges it into
// the session.
func CreateEntityHandler(c echo.Context) error {
	type createEntityResponse struct {
		Message string         `json:"message"`
		Entity  *common.Entity `json:"entity,omitempty"`
	}

	data := new(common.Entity)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createEntityResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createEntityResponse{Message: "Invalid request body"})
	}

	res, err := appOf(c).API.CreateEntity(c.Request().Context(), *data)
	if err != nil {
		return backendError(c, "create entity", err)
	}

	entity := *data
	if id := firstNonEmpty(res.EntityID, res.ID); id != "" {
		entity.ID = id
	}
	if entity.ID != "" {
		sessionOf(c).LoadEntities([]common.Entity{entity})
	}

	return c.JSON(http.StatusCreated, createEntityResponse{
		Message: "Entity created successfully",
		Entity:  &entity,
	})
}

// AddEntityRelationshipHandler adds an embedded relationship to an entity
func AddEntityRelationshipHandler(c echo.Context) error {
	entityID := c.Param("id")
	if entityID == "" {
		return message(c, http.StatusBadRequest, "Invalid request params")
	}

	data := new(common.Relationship)
	if err := c.Bind(data); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}

	res, err := appOf(c).API.AddEntityRelationship(c.Request().Context(), entityID, *data)
	if err != nil {
		return backendError(c, "add entity relationship", err)
	}
	return c.JSON(http.StatusCreated, res)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
