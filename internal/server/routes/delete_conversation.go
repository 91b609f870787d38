package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ResetConversationHandler drops the conversation; the next message starts
// a new one.
func ResetConversationHandler(c echo.Context) error {
	sessionOf(c).Conversation().Reset()
	return message(c, http.StatusOK, "Conversation reset successfully")
}
