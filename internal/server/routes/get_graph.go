package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetGraphHandler returns the force graph payload of the selected entities
func GetGraphHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionOf(c).Render())
}

// GetGraphDOTHandler returns the visible graph as Graphviz DOT
func GetGraphDOTHandler(c echo.Context) error {
	s := sessionOf(c)
	dot := s.Graph().Visible(s.Toggles()).ToDOT()
	return c.Blob(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(dot))
}

// GetGraphExportsHandler lists the stored snapshots of the session
func GetGraphExportsHandler(c echo.Context) error {
	type getGraphExportsResponse struct {
		Keys []string `json:"keys"`
	}

	keys, err := appOf(c).Exporter.List(c.Request().Context(), sessionOf(c).ID())
	if err != nil {
		return backendError(c, "list snapshots", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return c.JSON(http.StatusOK, getGraphExportsResponse{Keys: keys})
}
