package session

import (
	"context"
	"time"
)

// Event types published by a session.
const (
	EventUpload       = "upload"
	EventNotice       = "notice"
	EventEntities     = "entities"
	EventSelection    = "selection"
	EventConversation = "conversation"
	EventGraph        = "graph"
	EventView         = "view"
	EventClosed       = "closed"
)

// Event is a state change of one session.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"payload,omitempty"`
	Time      time.Time `json:"time"`
}

// Publisher forwards session events, to connected browsers or a message
// broker. Publish must not block for long; it is called from poll loops.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
