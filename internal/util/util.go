package util

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried in an access token. Email is needed to resolve the payment
// provider customer for the authenticated user.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var hmacMethods = []string{"HS256", "HS384", "HS512"}

// ValidateJWT verifies an HMAC-signed access token against the shared secret
// and returns its claims. The token issuer signs with HS256; the other HMAC
// variants are accepted since they use the same key material. Tokens signed
// with any asymmetric algorithm are rejected.
func ValidateJWT(tokenString string, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods(hmacMethods))
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
