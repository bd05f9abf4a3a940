package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Ensure CredentialStore implements the interface.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements driven.CredentialStore using PostgreSQL.
// Access tokens are sealed with the TokenEncryptor before they reach the table.
type CredentialStore struct {
	db        *sql.DB
	encryptor *TokenEncryptor
}

// NewCredentialStore creates a new PostgreSQL-backed credential store.
func NewCredentialStore(db *sql.DB, encryptor *TokenEncryptor) *CredentialStore {
	return &CredentialStore{
		db:        db,
		encryptor: encryptor,
	}
}

// Save stores or updates a credential (upsert).
func (s *CredentialStore) Save(ctx context.Context, cred *domain.Credential) error {
	if cred.ID == "" || cred.UserID == "" {
		return fmt.Errorf("%w: credential id and user id are required", domain.ErrInvalidInput)
	}

	blob, err := s.encryptor.Seal(cred.ID, cred.AccessToken)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}

	query := `
		INSERT INTO credentials (
			id, user_id, workspace_id, workspace_name, token_blob, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id,
			workspace_name = EXCLUDED.workspace_name,
			token_blob = EXCLUDED.token_blob,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, query,
		cred.ID,
		cred.UserID,
		cred.WorkspaceID,
		nullString(cred.WorkspaceName),
		blob,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	return nil
}

const credentialColumns = `id, user_id, workspace_id, workspace_name, token_blob, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *CredentialStore) scan(row rowScanner) (*domain.Credential, error) {
	var cred domain.Credential
	var workspaceName sql.NullString
	var blob []byte

	if err := row.Scan(
		&cred.ID,
		&cred.UserID,
		&cred.WorkspaceID,
		&workspaceName,
		&blob,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	); err != nil {
		return nil, err
	}
	cred.WorkspaceName = workspaceName.String

	token, err := s.encryptor.Open(cred.ID, blob)
	if err != nil {
		return nil, fmt.Errorf("open token for credential %s: %w", cred.ID, err)
	}
	cred.AccessToken = token
	return &cred, nil
}

// Get retrieves a credential by ID with its decrypted token.
func (s *CredentialStore) Get(ctx context.Context, id string) (*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = $1`

	cred, err := s.scan(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}

// ListByUser returns the user's credentials oldest first.
func (s *CredentialStore) ListByUser(ctx context.Context, userID string) ([]*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + `
		FROM credentials
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var creds []*domain.Credential
	for rows.Next() {
		cred, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Delete removes a credential.
func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
