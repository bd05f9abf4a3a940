package domain

import (
	"encoding/json"
	"testing"
)

func TestTokenClaimsJSON(t *testing.T) {
	claims := TokenClaims{UserID: "user-1", Email: "a@b.test", IssuedAt: 10, ExpiresAt: 20}
	data, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["user_id"] != "user-1" {
		t.Errorf("expected user_id user-1, got %v", out["user_id"])
	}
	if out["exp"] != float64(20) {
		t.Errorf("expected exp 20, got %v", out["exp"])
	}
}
