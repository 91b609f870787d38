package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/storage"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// ExportGraphHandler stores a snapshot of the visible graph and returns a
// download link.
func ExportGraphHandler(c echo.Context) error {
	type exportGraphBody struct {
		Format string `json:"format" validate:"omitempty,oneof=json dot"`
	}

	type exportGraphResponse struct {
		Message  string            `json:"message"`
		Snapshot *storage.Snapshot `json:"snapshot,omitempty"`
	}

	data := new(exportGraphBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, exportGraphResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, exportGraphResponse{Message: "Invalid request body"})
	}

	s := sessionOf(c)
	g := s.Graph().Visible(s.Toggles())
	snap, err := appOf(c).Exporter.Export(c.Request().Context(), s.ID(), g, data.Format)
	if errors.Is(err, storage.ErrUnknownFormat) {
		return c.JSON(http.StatusBadRequest, exportGraphResponse{Message: "Invalid request body"})
	}
	if err != nil {
		logger.Error("Failed to export graph", "session_id", s.ID(), "err", err)
		return c.JSON(http.StatusBadGateway, exportGraphResponse{Message: "Failed to export graph"})
	}

	return c.JSON(http.StatusCreated, exportGraphResponse{
		Message:  "Graph exported successfully",
		Snapshot: &snap,
	})
}
