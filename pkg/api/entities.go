package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

// MutationResponse is returned by entity create/update/delete and by adding
// a relationship.
type MutationResponse struct {
	ID       string `json:"id,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
	Message  string `json:"message"`
}

// ListEntities lists entities. Empty searchText and domain are left out of
// the query; with searchText set the backend runs a full text search.
func (c *Client) ListEntities(ctx context.Context, searchText string, domain string) ([]common.Entity, error) {
	query := url.Values{}
	if searchText != "" {
		query.Set("search_text", searchText)
	}
	if domain != "" {
		query.Set("domain", domain)
	}

	var body struct {
		Entities []common.Entity `json:"entities"`
		Count    int             `json:"count"`
	}
	if err := c.doJSON(ctx, "list_entities", http.MethodGet, "/api/entities", query, nil, &body); err != nil {
		return nil, err
	}
	return body.Entities, nil
}

func (c *Client) GetEntity(ctx context.Context, entityID string) (common.Entity, error) {
	var entity common.Entity
	err := c.doJSON(ctx, "get_entity", http.MethodGet, "/api/entities/"+url.PathEscape(entityID), nil, nil, &entity)
	return entity, err
}

func (c *Client) CreateEntity(ctx context.Context, entity common.Entity) (MutationResponse, error) {
	var res MutationResponse
	err := c.doJSON(ctx, "create_entity", http.MethodPost, "/api/entities", nil, entity, &res)
	return res, err
}

// UpdateEntity sends a partial update; only the keys present in fields change.
func (c *Client) UpdateEntity(ctx context.Context, entityID string, fields map[string]any) (MutationResponse, error) {
	var res MutationResponse
	err := c.doJSON(ctx, "update_entity", http.MethodPut, "/api/entities/"+url.PathEscape(entityID), nil, fields, &res)
	return res, err
}

func (c *Client) DeleteEntity(ctx context.Context, entityID string) (MutationResponse, error) {
	var res MutationResponse
	err := c.doJSON(ctx, "delete_entity", http.MethodDelete, "/api/entities/"+url.PathEscape(entityID), nil, nil, &res)
	return res, err
}

func (c *Client) GetEntityRelationships(ctx context.Context, entityID string) ([]common.Relationship, error) {
	var body struct {
		EntityID      string                `json:"entity_id"`
		Relationships []common.Relationship `json:"relationships"`
	}
	err := c.doJSON(ctx, "get_entity_relationships", http.MethodGet, "/api/entities/"+url.PathEscape(entityID)+"/relationships", nil, nil, &body)
	if err != nil {
		return nil, err
	}
	return body.Relationships, nil
}

func (c *Client) AddEntityRelationship(ctx context.Context, entityID string, rel common.Relationship) (MutationResponse, error) {
	var res MutationResponse
	err := c.doJSON(ctx, "add_entity_relationship", http.MethodPost, "/api/entities/"+url.PathEscape(entityID)+"/relationships", nil, rel, &res)
	return res, err
}
