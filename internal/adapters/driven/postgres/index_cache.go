package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Ensure IndexCache implements the interface.
var _ driven.IndexCacheStore = (*IndexCache)(nil)

// IndexCache implements driven.IndexCacheStore using PostgreSQL.
// Items live one row per collection; the version and refresh time live in collection_index_meta.
type IndexCache struct {
	db *sql.DB
}

// NewIndexCache creates a new PostgreSQL-backed collection index cache.
func NewIndexCache(db *sql.DB) *IndexCache {
	return &IndexCache{db: db}
}

// GetIndex returns the user's index or nil, nil when it was never built.
func (c *IndexCache) GetIndex(ctx context.Context, userID string) (*domain.CollectionIndex, error) {
	index := &domain.CollectionIndex{}
	err := c.db.QueryRowContext(ctx,
		`SELECT version, refreshed_at FROM collection_index_meta WHERE user_id = $1`,
		userID,
	).Scan(&index.Version, &index.RefreshedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get index meta: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT collection_id, title, icon_emoji, url
		FROM collection_index
		WHERE user_id = $1
		ORDER BY position ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer func() { _ = rows.Close() }()

	index.Items = []domain.CollectionSummary{}
	for rows.Next() {
		var item domain.CollectionSummary
		var icon sql.NullString
		if err := rows.Scan(&item.ID, &item.Title, &icon, &item.URL); err != nil {
			return nil, fmt.Errorf("scan index item: %w", err)
		}
		item.IconEmoji = icon.String
		index.Items = append(index.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index: %w", err)
	}

	return index, nil
}

// ReplaceIndex upserts every item and removes rows that are no longer reachable, in one transaction.
func (c *IndexCache) ReplaceIndex(ctx context.Context, userID string, index *domain.CollectionIndex) error {
	return withTx(ctx, c.db, func(tx *sql.Tx) error {
		ids := make([]string, 0, len(index.Items))
		for i, item := range index.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO collection_index (
					user_id, collection_id, title, icon_emoji, url, position, refreshed_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (user_id, collection_id) DO UPDATE SET
					title = EXCLUDED.title,
					icon_emoji = EXCLUDED.icon_emoji,
					url = EXCLUDED.url,
					position = EXCLUDED.position,
					refreshed_at = EXCLUDED.refreshed_at
			`, userID, item.ID, item.Title, nullString(item.IconEmoji), item.URL, i, index.RefreshedAt)
			if err != nil {
				return fmt.Errorf("upsert index item %s: %w", item.ID, err)
			}
			ids = append(ids, item.ID)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM collection_index WHERE user_id = $1 AND NOT (collection_id = ANY($2))`,
			userID, pq.Array(ids),
		); err != nil {
			return fmt.Errorf("prune index: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO collection_index_meta (user_id, version, refreshed_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET
				version = EXCLUDED.version,
				refreshed_at = EXCLUDED.refreshed_at
		`, userID, index.Version, index.RefreshedAt); err != nil {
			return fmt.Errorf("save index meta: %w", err)
		}
		return nil
	})
}
