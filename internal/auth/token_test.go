package auth

import (
	"testing"

	"github.com/spec-kit/claim-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, expiresAt, err := tm.GenerateToken("admin-1", domain.SubjectTypeAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatal("empty token or expiry")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SubjectID != "admin-1" {
		t.Errorf("subjectID = %s, want admin-1", claims.SubjectID)
	}
	if claims.Subject != domain.SubjectTypeAdmin {
		t.Errorf("subject = %s, want ADMIN", claims.Subject)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 60)
	token, _, err := tm.GenerateToken("user-1", domain.SubjectTypeUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewTokenManager("secret-b", 60)
	if _, err := other.ParseToken(token); err == nil {
		t.Error("token signed with another secret parsed successfully")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	if _, err := tm.ParseToken("not.a.token"); err == nil {
		t.Error("garbage token parsed successfully")
	}
}
