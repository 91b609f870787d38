package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
)

func GetSessionsHandler(c echo.Context) error {
	type sessionSummary struct {
		ID        string       `json:"id"`
		CreatedAt time.Time    `json:"created_at"`
		View      session.View `json:"view"`
		Entities  int          `json:"entities"`
		Selected  int          `json:"selected"`
	}

	sessions := appOf(c).Registry.List()
	res := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, sessionSummary{
			ID:        s.ID(),
			CreatedAt: s.CreatedAt(),
			View:      s.View(),
			Entities:  len(s.Entities()),
			Selected:  len(s.Selection().IDs),
		})
	}
	return c.JSON(http.StatusOK, res)
}

// GetSessionHandler returns everything the console renders for a session
func GetSessionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionOf(c).State())
}

// SessionSocketHandler upgrades to a websocket that receives the session's
// events, starting with the full state.
func SessionSocketHandler(c echo.Context) error {
	s := sessionOf(c)
	initial := session.Event{
		Type:      "state",
		SessionID: s.ID(),
		Payload:   s.State(),
		Time:      time.Now().UTC(),
	}
	// The response is hijacked by the upgrade; errors are already answered.
	_ = appOf(c).Hub.Serve(c.Response(), c.Request(), s.ID(), initial)
	return nil
}
