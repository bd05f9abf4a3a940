package domain

import "time"

// Credential is one destination workspace linked to a user
type Credential struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	WorkspaceID   string `json:"workspaceId"`
	WorkspaceName string `json:"workspaceName,omitempty"`

	// AccessToken is the destination integration token
	AccessToken string `json:"-"` // Never serialize

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CredentialSummary provides a safe view without the token
type CredentialSummary struct {
	ID            string    `json:"id"`
	WorkspaceID   string    `json:"workspaceId"`
	WorkspaceName string    `json:"workspaceName,omitempty"`
	HasToken      bool      `json:"hasToken"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToSummary converts Credential to CredentialSummary
func (c *Credential) ToSummary() *CredentialSummary {
	return &CredentialSummary{
		ID:            c.ID,
		WorkspaceID:   c.WorkspaceID,
		WorkspaceName: c.WorkspaceName,
		HasToken:      c.AccessToken != "",
		CreatedAt:     c.CreatedAt,
	}
}
