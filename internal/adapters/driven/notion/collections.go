package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

const searchPageSize = 100

// GetCollection returns the raw database object
func (c *Client) GetCollection(ctx context.Context, token, collectionID string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, "/databases/"+url.PathEscape(collectionID), token, nil, &raw); err != nil {
		return nil, readError("get collection", err)
	}
	return raw, nil
}

type searchRequest struct {
	Filter      searchFilter `json:"filter"`
	StartCursor string       `json:"start_cursor,omitempty"`
	PageSize    int          `json:"page_size"`
}

type searchFilter struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

type searchResponse struct {
	Results    []databaseObject `json:"results"`
	NextCursor *string          `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

type databaseObject struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title []struct {
		PlainText string `json:"plain_text"`
	} `json:"title"`
	Icon *struct {
		Type  string `json:"type"`
		Emoji string `json:"emoji"`
	} `json:"icon"`
}

func (d databaseObject) summary() domain.CollectionSummary {
	s := domain.CollectionSummary{ID: d.ID, URL: d.URL}
	for _, t := range d.Title {
		s.Title += t.PlainText
	}
	if d.Icon != nil && d.Icon.Type == "emoji" {
		s.IconEmoji = d.Icon.Emoji
	}
	return s
}

// SearchCollections returns one page of databases shared with the token
func (c *Client) SearchCollections(ctx context.Context, token, cursor string) (*driven.CollectionPage, error) {
	body := searchRequest{
		Filter:      searchFilter{Property: "object", Value: "database"},
		StartCursor: cursor,
		PageSize:    searchPageSize,
	}
	var resp searchResponse
	if err := c.doRequest(ctx, http.MethodPost, "/search", token, body, &resp); err != nil {
		return nil, readError("search collections", err)
	}

	page := &driven.CollectionPage{
		Items:   make([]domain.CollectionSummary, 0, len(resp.Results)),
		HasMore: resp.HasMore,
	}
	for _, r := range resp.Results {
		page.Items = append(page.Items, r.summary())
	}
	if resp.NextCursor != nil {
		page.NextCursor = *resp.NextCursor
	}
	if page.NextCursor == "" {
		page.HasMore = false
	}
	return page, nil
}

// UpdateOptions replaces the option list of a select, multi_select or status property
func (c *Client) UpdateOptions(ctx context.Context, token, collectionID, property string, propType domain.PropertyType, options []string) error {
	opts := make([]map[string]string, 0, len(options))
	for _, o := range options {
		opts = append(opts, map[string]string{"name": o})
	}
	body := map[string]any{
		"properties": map[string]any{
			property: map[string]any{
				string(propType): map[string]any{"options": opts},
			},
		},
	}
	if err := c.doRequest(ctx, http.MethodPatch, "/databases/"+url.PathEscape(collectionID), token, body, nil); err != nil {
		return writeError("update options", err)
	}
	return nil
}
