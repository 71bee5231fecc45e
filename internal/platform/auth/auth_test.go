package auth

import (
	"regexp"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestRandomTempPassword(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 10; i++ {
		p, err := RandomTempPassword()
		if err != nil {
			t.Fatalf("RandomTempPassword failed: %v", err)
		}
		if !pattern.MatchString(p) {
			t.Errorf("expected 6 digits, got %q", p)
		}
	}
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken()
	if err != nil {
		t.Fatalf("RandomToken failed: %v", err)
	}
	b, _ := RandomToken()
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("two tokens must not collide")
	}
}

func TestIssueToken_Claims(t *testing.T) {
	secret := []byte("test-secret")
	raw, err := IssueToken(secret, "user-1", "ana@example.com", RoleTherapist)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token did not validate: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Role != RoleTherapist {
		t.Errorf("role = %q, want therapist", claims.Role)
	}
	if claims.Email != "ana@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestIssueToken_WrongSecretRejected(t *testing.T) {
	raw, err := IssueToken([]byte("secret-a"), "user-1", "a@b.com", RolePatient)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	_, err = jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret-b"), nil
	})
	if err == nil {
		t.Error("expected validation failure with the wrong secret")
	}
}
