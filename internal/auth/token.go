package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/meetbot-dev/meetbot/pkg/models"
)

// SignClaims issues an HS256 token binding an owner/session pair, used
// for the OAuth state parameter and for admin API access.
func SignClaims(ownerKey, sessionKey string, secret []byte, ttl time.Duration) (string, error) {
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		OwnerKey:   ownerKey,
		SessionKey: sessionKey,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseClaims validates an HS256 token and returns its claims.
func ParseClaims(accessToken string, secret []byte) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("err parsing token: %w", err)
	}
	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}
