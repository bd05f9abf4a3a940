package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Ensure SchemaCache implements the interface.
var _ driven.SchemaCacheStore = (*SchemaCache)(nil)

// SchemaCache implements driven.SchemaCacheStore using PostgreSQL.
// Rows are keyed by (user_id, collection_id).
type SchemaCache struct {
	db *sql.DB
}

// NewSchemaCache creates a new PostgreSQL-backed schema cache.
func NewSchemaCache(db *sql.DB) *SchemaCache {
	return &SchemaCache{db: db}
}

// GetSchema returns the cached row or nil, nil on a miss.
func (c *SchemaCache) GetSchema(ctx context.Context, userID, collectionID string) (*domain.CachedSchema, error) {
	query := `
		SELECT schema_json, raw_json, version, credential_id, updated_at
		FROM schema_cache
		WHERE user_id = $1 AND collection_id = $2
	`

	var (
		schemaJSON   []byte
		raw          []byte
		credentialID sql.NullString
		entry        = domain.CachedSchema{UserID: userID, CollectionID: collectionID}
	)
	err := c.db.QueryRowContext(ctx, query, userID, collectionID).Scan(
		&schemaJSON,
		&raw,
		&entry.Version,
		&credentialID,
		&entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}

	entry.Schema = &domain.SimplifiedSchema{}
	if err := json.Unmarshal(schemaJSON, entry.Schema); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	if len(raw) > 0 {
		entry.Raw = json.RawMessage(raw)
	}
	entry.CredentialID = credentialID.String

	return &entry, nil
}

// SaveSchema upserts the row for (user, collection).
func (c *SchemaCache) SaveSchema(ctx context.Context, entry *domain.CachedSchema) error {
	schemaJSON, err := json.Marshal(entry.Schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	var raw []byte
	if len(entry.Raw) > 0 {
		raw = entry.Raw
	}

	query := `
		INSERT INTO schema_cache (
			user_id, collection_id, schema_json, raw_json, version, credential_id, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, collection_id) DO UPDATE SET
			schema_json = EXCLUDED.schema_json,
			raw_json = EXCLUDED.raw_json,
			version = EXCLUDED.version,
			credential_id = EXCLUDED.credential_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err = c.db.ExecContext(ctx, query,
		entry.UserID,
		entry.CollectionID,
		schemaJSON,
		raw,
		entry.Version,
		nullString(entry.CredentialID),
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	return nil
}

// DeleteSchema removes the row. Deleting a missing row is not an error.
func (c *SchemaCache) DeleteSchema(ctx context.Context, userID, collectionID string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM schema_cache WHERE user_id = $1 AND collection_id = $2`,
		userID, collectionID)
	if err != nil {
		return fmt.Errorf("delete schema: %w", err)
	}
	return nil
}
