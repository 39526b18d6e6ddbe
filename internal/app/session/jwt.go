package session

import (
	"aishop/internal/app/logger"
	"context"
	"fmt"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"time"
)

// session.Manager interface implementation
var _ Manager = (*JWT)(nil)

// JWT issues and verifies stateless HS256 tokens whose subject is the customer id.
// The storefront signs tokens with the same secret.
type JWT struct {
	issuer        string
	secretKey     []byte
	tokenLifetime time.Duration
}

type Option func(*JWT)

func WithIssuer(issuer string) Option {
	return func(s *JWT) {
		s.issuer = issuer
	}
}

func WithTokenLifetime(d time.Duration) Option {
	return func(s *JWT) {
		s.tokenLifetime = d
	}
}

func (svc *JWT) LoggerComponent() string {
	return "Session.JWT"
}

func NewJWT(secretKey string, opts ...Option) *JWT {
	s := &JWT{
		secretKey:     []byte(secretKey),
		tokenLifetime: time.Hour,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create method of session.Creator implementation
func (svc *JWT) Create(ctx context.Context, customerID string) (string, error) {
	l := logger.Get(ctx, svc)

	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Subject:   customerID,
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: now.Add(svc.tokenLifetime).Unix(),
			Issuer:    svc.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	strToken, err := token.SignedString(svc.secretKey)
	if err != nil {
		l.Error().Err(err).Send()
		return "", fmt.Errorf("jwt encode: %w", err)
	}

	return strToken, nil
}

// Read method of session.Reader implementation
func (svc *JWT) Read(ctx context.Context, tokenString string) (string, error) {
	l := logger.Get(ctx, svc)

	c := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return svc.secretKey, nil
	})
	if err != nil {
		l.Debug().Err(err).Msg("ParseWithClaims failed")
		return "", ErrInvalidToken
	}

	if !token.Valid || c.Subject == "" {
		l.Debug().Msg("Invalid token")
		return "", ErrInvalidToken
	}

	if svc.issuer != "" && !c.VerifyIssuer(svc.issuer, true) {
		l.Debug().Str("issuer", c.Issuer).Msg("Unexpected issuer")
		return "", ErrInvalidToken
	}

	return c.Subject, nil
}
