package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/conversation"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// SendMessageHandler sends a message about the selected entities. The first
// message starts the conversation.
func SendMessageHandler(c echo.Context) error {
	type sendMessageBody struct {
		Message string `json:"message" validate:"required"`
	}

	type sendMessageResponse struct {
		Message      string                     `json:"message"`
		Conversation *session.ConversationState `json:"conversation,omitempty"`
	}

	data := new(sendMessageBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, sendMessageResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, sendMessageResponse{Message: "Invalid request body"})
	}

	s := sessionOf(c)
	err := s.Send(c.Request().Context(), data.Message)
	view := session.ConversationView(s.Conversation().State())
	switch {
	case errors.Is(err, conversation.ErrNoEntities):
		return c.JSON(http.StatusUnprocessableEntity, sendMessageResponse{
			Message:      conversation.MsgSelectEntities,
			Conversation: &view,
		})
	case errors.Is(err, conversation.ErrClosed):
		return c.JSON(http.StatusGone, sendMessageResponse{Message: "Session closed"})
	case err != nil:
		logger.Error("Failed to send message", "session_id", s.ID(), "err", err)
		return c.JSON(http.StatusBadGateway, sendMessageResponse{
			Message:      conversation.MsgSendFailed,
			Conversation: &view,
		})
	}

	return c.JSON(http.StatusAccepted, sendMessageResponse{
		Message:      "Message sent",
		Conversation: &view,
	})
}
