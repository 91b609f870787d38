package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

// StartConversationResponse is the body of POST /api/conversations/start.
type StartConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

// StartConversation opens a conversation about the given entities.
func (c *Client) StartConversation(ctx context.Context, entityIDs []string, query string) (StartConversationResponse, error) {
	body := struct {
		EntityIDs []string `json:"entity_ids"`
		Query     string   `json:"query"`
	}{EntityIDs: entityIDs, Query: query}

	var res StartConversationResponse
	if err := c.doJSON(ctx, "start_conversation", http.MethodPost, "/api/conversations/start", nil, body, &res); err != nil {
		return res, err
	}
	if res.ConversationID == "" {
		return res, fmt.Errorf("start_conversation: backend response is missing conversation_id")
	}
	return res, nil
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) (common.Conversation, error) {
	var conv common.Conversation
	err := c.doJSON(ctx, "get_conversation", http.MethodGet, "/api/conversations/"+url.PathEscape(conversationID), nil, nil, &conv)
	return conv, err
}

// AddMessage appends a user message to a conversation. The backend answers
// immediately and processes the message in the background.
func (c *Client) AddMessage(ctx context.Context, conversationID string, message string) error {
	body := struct {
		Message string `json:"message"`
	}{Message: message}
	return c.doJSON(ctx, "add_message", http.MethodPost, "/api/conversations/"+url.PathEscape(conversationID)+"/messages", nil, body, nil)
}

func (c *Client) GetConversationRelationships(ctx context.Context, conversationID string) ([]common.DiscoveredRelationship, error) {
	var body struct {
		ConversationID string                          `json:"conversation_id"`
		Relationships  []common.DiscoveredRelationship `json:"relationships"`
	}
	err := c.doJSON(ctx, "get_conversation_relationships", http.MethodGet, "/api/conversations/"+url.PathEscape(conversationID)+"/relationships", nil, nil, &body)
	if err != nil {
		return nil, err
	}
	return body.Relationships, nil
}

func (c *Client) GetConversationSummary(ctx context.Context, conversationID string) (string, error) {
	var body struct {
		ConversationID string `json:"conversation_id"`
		Summary        string `json:"summary"`
	}
	err := c.doJSON(ctx, "get_conversation_summary", http.MethodGet, "/api/conversations/"+url.PathEscape(conversationID)+"/summary", nil, nil, &body)
	return body.Summary, err
}

// GetConversationVisualization returns the graph layout suggestions the
// visualizer agent produced. The shape is agent defined; usually a single
// "suggestion" text.
func (c *Client) GetConversationVisualization(ctx context.Context, conversationID string) (map[string]any, error) {
	var body struct {
		ConversationID string         `json:"conversation_id"`
		Visualization  map[string]any `json:"visualization"`
	}
	err := c.doJSON(ctx, "get_conversation_visualization", http.MethodGet, "/api/conversations/"+url.PathEscape(conversationID)+"/visualization", nil, nil, &body)
	if err != nil {
		return nil, err
	}
	if body.Visualization == nil {
		body.Visualization = map[string]any{}
	}
	return body.Visualization, nil
}
