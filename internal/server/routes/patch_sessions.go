package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
)

// EditViewHandler switches the panel the console shows
func EditViewHandler(c echo.Context) error {
	type editViewBody struct {
		View string `json:"view" validate:"required,oneof=upload entities graph conversation"`
	}

	type editViewResponse struct {
		Message string       `json:"message"`
		View    session.View `json:"view,omitempty"`
	}

	data := new(editViewBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editViewResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, editViewResponse{Message: "Invalid request body"})
	}

	view, err := session.ParseView(data.View)
	if err != nil {
		return c.JSON(http.StatusBadRequest, editViewResponse{Message: "Invalid request body"})
	}

	sessionOf(c).SetView(view)
	return c.JSON(http.StatusOK, editViewResponse{Message: "View updated successfully", View: view})
}
