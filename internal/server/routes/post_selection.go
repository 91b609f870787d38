package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToggleSelectionHandler checks or unchecks one entity of the list
func ToggleSelectionHandler(c echo.Context) error {
	type toggleSelectionBody struct {
		ID      string `json:"id" validate:"required"`
		Checked *bool  `json:"checked" validate:"required"`
	}

	data := new(toggleSelectionBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, selectionResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, selectionResponse{Message: "Invalid request body"})
	}

	s := sessionOf(c)
	s.ToggleEntity(data.ID, *data.Checked)
	view := s.SelectionView()
	return c.JSON(http.StatusOK, selectionResponse{
		Message:   view.Text,
		Selection: &view,
	})
}

// RefreshSelectionHandler reloads the embedded relationships of the selected
// entities from the backend.
func RefreshSelectionHandler(c echo.Context) error {
	s := sessionOf(c)
	if err := s.RefreshSelectedRelationships(c.Request().Context()); err != nil {
		return backendError(c, "refresh relationships", err)
	}
	view := s.SelectionView()
	return c.JSON(http.StatusOK, selectionResponse{
		Message:   "Relationships refreshed",
		Selection: &view,
	})
}
