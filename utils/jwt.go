package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CartClaims names the cart a session token may touch.
type CartClaims struct {
	CartID string `json:"cartId"`
	jwt.RegisteredClaims
}

// GenerateCartToken mints a signed session token for one cart.
func GenerateCartToken(cartID, secret string, ttl time.Duration) (string, error) {
	claims := &CartClaims{
		CartID: cartID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseCartToken verifies a session token and returns its cart id.
func ParseCartToken(tokenStr, secret string) (string, error) {
	claims := &CartClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid cart token")
	}
	if claims.CartID == "" {
		return "", errors.New("invalid cart token")
	}
	return claims.CartID, nil
}
