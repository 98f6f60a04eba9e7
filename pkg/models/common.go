package models

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrNullRecord      = errors.New("null meeting request record")
	ErrRequestNotFound = errors.New("meeting request not found")
)

// Claims are carried both in the OAuth state parameter and in admin API
// bearer tokens.
type Claims struct {
	jwt.RegisteredClaims
	OwnerKey   string `json:"ownerKey"`
	SessionKey string `json:"sessionKey"`
}
