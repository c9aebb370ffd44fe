package services

import (
	"testing"

	"github.com/amaanshakeel0998/capsule-medication-tracker/config"
)

func testAuthService() *AuthService {
	return NewAuthService(config.JWTConfig{
		Secret:      "test-secret-key",
		ExpiryHours: 1,
	})
}

func TestHashAndCheckPassword(t *testing.T) {
	auth := testAuthService()

	hash, err := auth.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !auth.CheckPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword(hash, "wrong password") {
		t.Error("wrong password accepted")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	auth := testAuthService()

	token, err := auth.GenerateToken(1, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 1 {
		t.Errorf("user id = %d, want 1", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := testAuthService()

	if _, err := auth.ValidateToken("not.a.token"); err == nil {
		t.Error("malformed token accepted")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	other := NewAuthService(config.JWTConfig{Secret: "different-secret", ExpiryHours: 1})
	token, err := other.GenerateToken(1, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := testAuthService().ValidateToken(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}
