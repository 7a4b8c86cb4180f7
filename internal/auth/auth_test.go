package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndParse(t *testing.T) {
	t.Setenv("SETTLE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	token, err := GenerateToken("auth0|abc123", "Client@Example.com", "Casey Client", RoleClient, 30*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "auth0|abc123" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Email != "client@example.com" {
		t.Fatalf("email not normalised: %s", claims.Email)
	}
	if claims.Role != RoleClient {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected jti")
	}
}

func TestGenerateRejectsUnknownRole(t *testing.T) {
	t.Setenv("SETTLE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	if _, err := GenerateToken("sub", "a@b.c", "", "SUPERUSER", time.Minute); err == nil {
		t.Fatal("expected role error")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	t.Setenv("SETTLE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	token, err := GenerateToken("sub", "a@b.c", "", RoleAdmin, time.Millisecond)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ParseAndValidate(token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseRejectsTampered(t *testing.T) {
	t.Setenv("SETTLE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	token, err := GenerateToken("sub", "a@b.c", "", RoleBroker, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := ParseAndValidate(tampered); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestMissingSecret(t *testing.T) {
	t.Setenv("SETTLE_AUTH_SECRET", "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken("sub", "a@b.c", "", RoleAdmin, time.Minute); err == nil {
		t.Fatal("expected missing secret error")
	}
}
