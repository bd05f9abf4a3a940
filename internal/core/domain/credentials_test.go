package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCredential_ToSummary(t *testing.T) {
	cred := &Credential{
		ID:            "cred-1",
		UserID:        "user-1",
		WorkspaceID:   "ws-1",
		WorkspaceName: "Research",
		AccessToken:   "secret_abc",
		CreatedAt:     time.Now(),
	}

	summary := cred.ToSummary()

	if summary.ID != "cred-1" {
		t.Errorf("expected ID cred-1, got %s", summary.ID)
	}
	if summary.WorkspaceName != "Research" {
		t.Errorf("expected workspace Research, got %s", summary.WorkspaceName)
	}
	if !summary.HasToken {
		t.Error("expected HasToken to be true")
	}
}

func TestCredential_TokenNeverSerialized(t *testing.T) {
	cred := &Credential{ID: "cred-1", AccessToken: "secret_abc"}

	data, err := json.Marshal(cred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(data), "secret_abc") {
		t.Errorf("access token leaked into JSON: %s", data)
	}
}
