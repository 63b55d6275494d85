package domain

import (
	"encoding/json"
	"testing"
)

func TestUserJSON_ExposesOnlyIDAndEmail(t *testing.T) {
	user := User{
		ID:           "u1",
		Email:        "a@b.com",
		Password:     "plain",
		PasswordHash: "$2a$10$hash",
		Tokens:       []AuthToken{{Purpose: PurposeAuth, Token: "a.b.c"}},
	}

	raw, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(fields) != 2 || fields["_id"] != "u1" || fields["email"] != "a@b.com" {
		t.Fatalf("unexpected serialized user: %s", raw)
	}
}

func TestUserHasToken(t *testing.T) {
	user := User{Tokens: []AuthToken{{Purpose: PurposeAuth, Token: "a.b.c"}}}

	if !user.HasToken(AuthToken{Purpose: PurposeAuth, Token: "a.b.c"}) {
		t.Fatalf("expected token to be found")
	}
	if user.HasToken(AuthToken{Purpose: "reset", Token: "a.b.c"}) {
		t.Fatalf("expected purpose mismatch to be rejected")
	}
}
