package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, c jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, c).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestParseValidToken(t *testing.T) {
	parser := NewParser("test-secret")
	token := signToken(t, "test-secret", jwt.SigningMethodHS256, claims{
		Email:    "user@example.com",
		FullName: "Test User",
		Role:     "client",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	principal, err := parser.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if principal.ID != "user-42" || principal.Email != "user@example.com" || principal.Role != "client" {
		t.Fatalf("principal = %+v", principal)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	parser := NewParser("right-secret")
	token := signToken(t, "wrong-secret", jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})

	if _, err := parser.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	parser := NewParser("test-secret")
	token := signToken(t, "test-secret", jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	if _, err := parser.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRequiresSubject(t *testing.T) {
	parser := NewParser("test-secret")
	token := signToken(t, "test-secret", jwt.SigningMethodHS256, claims{
		Email: "no-subject@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := parser.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	parser := NewParser("test-secret")
	if _, err := parser.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
