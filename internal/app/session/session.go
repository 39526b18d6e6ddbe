package session

import (
	"context"
	"errors"
	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.StandardClaims
}

type Creator interface {
	// Create signs a token for the customer
	Create(ctx context.Context, customerID string) (string, error)
}

type Reader interface {
	// Read verifies the token and returns the customer id
	Read(ctx context.Context, token string) (string, error)
}

type Manager interface {
	Creator
	Reader
}
