package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// CreatePage creates a database row with its first block batch
func (c *Client) CreatePage(ctx context.Context, token string, req *driven.CreatePageRequest) (*driven.CreatedPage, error) {
	if len(req.Children) > domain.MaxBlocksPerRequest {
		return nil, writeError("create page", fmt.Errorf("%d children exceed the per-request limit", len(req.Children)))
	}
	body := map[string]any{
		"parent":     map[string]any{"database_id": req.CollectionID},
		"properties": encodeProperties(req.Properties),
	}
	if children := encodeBlocks(req.Children); len(children) > 0 {
		body["children"] = children
	}

	var page driven.CreatedPage
	if err := c.doRequest(ctx, http.MethodPost, "/pages", token, body, &page); err != nil {
		return nil, writeError("create page", err)
	}
	return &page, nil
}

// AppendBlocks appends one batch of children to a page
func (c *Client) AppendBlocks(ctx context.Context, token, pageID string, blocks []domain.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	if len(blocks) > domain.MaxBlocksPerRequest {
		return writeError("append blocks", fmt.Errorf("%d blocks exceed the per-request limit", len(blocks)))
	}
	body := map[string]any{"children": encodeBlocks(blocks)}
	if err := c.doRequest(ctx, http.MethodPatch, "/blocks/"+url.PathEscape(pageID)+"/children", token, body, nil); err != nil {
		return writeError("append blocks", err)
	}
	return nil
}
