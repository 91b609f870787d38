package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ResetUploadHandler removes the file and forgets its job. Entities already
// merged into the session stay.
func ResetUploadHandler(c echo.Context) error {
	sessionOf(c).Upload().Reset()
	return message(c, http.StatusOK, "Upload reset successfully")
}
