package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/graph"
)

// EditGraphTogglesHandler shows or hides strong and weak links. Omitted
// fields keep their value.
func EditGraphTogglesHandler(c echo.Context) error {
	type editGraphTogglesBody struct {
		ShowStrong *bool `json:"show_strong"`
		ShowWeak   *bool `json:"show_weak"`
	}

	type editGraphTogglesResponse struct {
		Message string         `json:"message"`
		Toggles *graph.Toggles `json:"toggles,omitempty"`
	}

	data := new(editGraphTogglesBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editGraphTogglesResponse{Message: "Invalid request body"})
	}

	s := sessionOf(c)
	t := s.Toggles()
	if data.ShowStrong != nil {
		t.ShowStrong = *data.ShowStrong
	}
	if data.ShowWeak != nil {
		t.ShowWeak = *data.ShowWeak
	}
	s.SetToggles(t)

	return c.JSON(http.StatusOK, editGraphTogglesResponse{
		Message: "Toggles updated successfully",
		Toggles: &t,
	})
}
