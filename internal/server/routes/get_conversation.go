package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/conversation"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
)

// GetConversationHandler returns the messages with their speaker display
func GetConversationHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, session.ConversationView(sessionOf(c).Conversation().State()))
}

func GetConversationSummaryHandler(c echo.Context) error {
	type getConversationSummaryResponse struct {
		Summary string `json:"summary"`
	}

	summary, err := sessionOf(c).Conversation().Summary(c.Request().Context())
	if errors.Is(err, conversation.ErrNoConversation) {
		return message(c, http.StatusNotFound, "No conversation started")
	}
	if err != nil {
		return backendError(c, "conversation summary", err)
	}
	return c.JSON(http.StatusOK, getConversationSummaryResponse{Summary: summary})
}

// GetConversationVisualizationHandler returns the layout suggestions of the
// visualizer agent as the backend sent them.
func GetConversationVisualizationHandler(c echo.Context) error {
	vis, err := sessionOf(c).Conversation().Visualization(c.Request().Context())
	if errors.Is(err, conversation.ErrNoConversation) {
		return message(c, http.StatusNotFound, "No conversation started")
	}
	if err != nil {
		return backendError(c, "conversation visualization", err)
	}
	return c.JSON(http.StatusOK, vis)
}
