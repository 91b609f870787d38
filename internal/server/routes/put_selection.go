package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
)

type selectionResponse struct {
	Message   string                 `json:"message"`
	Selection *session.SelectionView `json:"selection,omitempty"`
}

// ReplaceSelectionHandler selects exactly the given entity ids, in order.
// Ids that are not in the entity list are skipped.
func ReplaceSelectionHandler(c echo.Context) error {
	type replaceSelectionBody struct {
		IDs []string `json:"ids"`
	}

	data := new(replaceSelectionBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, selectionResponse{Message: "Invalid request body"})
	}

	s := sessionOf(c)
	s.SelectIDs(data.IDs)
	view := s.SelectionView()
	return c.JSON(http.StatusOK, selectionResponse{
		Message:   view.Text,
		Selection: &view,
	})
}
