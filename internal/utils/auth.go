package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignToken issues an HS256 token naming the purchaser. Tokens are normally
// issued by the back office; this is used by tooling and tests.
func SignToken(subject, name, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"name": name,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken parses and validates a token
func ValidateToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Purchaser returns the display identity carried by validated claims
func Purchaser(claims jwt.MapClaims) string {
	if name, ok := claims["name"].(string); ok && name != "" {
		return name
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}
