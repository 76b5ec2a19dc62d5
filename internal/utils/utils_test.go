package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if !strings.HasPrefix(id, "req_") {
		t.Errorf("expected req_ prefix, got %q", id)
	}
	if GenerateRequestID() == id {
		t.Error("expected distinct request ids across calls")
	}
}

func TestValidateJWT_RoundTrip(t *testing.T) {
	secret := "test-secret"
	claims := Claims{
		UserID: "user-1",
		Role:   "staff",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	userID, role, err := ValidateJWT(signed, secret)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if userID != "user-1" || role != "staff" {
		t.Errorf("got userID=%q role=%q", userID, role)
	}
}

func TestValidateJWT_WrongSecretFails(t *testing.T) {
	claims := Claims{UserID: "user-1", Role: "staff"}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret-a"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, _, err := ValidateJWT(signed, "secret-b"); err == nil {
		t.Error("expected validation error with wrong secret")
	}
}

func TestValidateJWT_RejectsAlgNone(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "user-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, _, err := ValidateJWT(signed, "secret"); err == nil {
		t.Error("expected rejection of alg=none token")
	}
}
