package utils

import (
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(7, "bob@example.com", "admin", "test-secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "bob@example.com" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(7, "bob@example.com", "user", "right-secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseJWT(token, "wrong-secret"); err == nil {
		t.Fatal("expected parse to fail with the wrong secret")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	if _, err := ParseJWT("not-a-token", "secret"); err == nil {
		t.Fatal("expected parse to fail on garbage input")
	}
}
