// internal/utils/jwt.go
// JWT validation. Token issuance is an external collaborator's
// responsibility (identity issuance is out of scope here); the Router
// only ever needs to validate a bearer token handed to it.

package utils

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the Router trusts off an inbound bearer token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ValidateJWT validates a bearer token and returns the caller's identity
// and role.
func ValidateJWT(tokenString, secret string) (string, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.UserID, claims.Role, nil
	}
	return "", "", fmt.Errorf("invalid token")
}
