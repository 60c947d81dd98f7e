package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingConfig = errors.New("JWT config is required")
)

// Claims represents the session claims issued after sign-in
type Claims struct {
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	Admin          bool   `json:"admin,omitempty"`
	SessionVersion int    `json:"sessionVersion"`
	jwt.RegisteredClaims
}

// Config represents JWT configuration
type Config struct {
	Secret        string
	AccessExpiry  time.Duration
	Issuer        string
	Audience      string
	SigningMethod jwt.SigningMethod
}

// DefaultConfig returns default JWT configuration
func DefaultConfig(secret string) *Config {
	return &Config{
		Secret:        secret,
		AccessExpiry:  24 * time.Hour,
		Issuer:        "roadwatch-api",
		Audience:      "roadwatch-users",
		SigningMethod: jwt.SigningMethodHS256,
	}
}

// Subject is the identity a session token is minted for
type Subject struct {
	UserID         string
	Email          string
	Admin          bool
	SessionVersion int
}

// GenerateToken generates a new session token
func GenerateToken(sub Subject, cfg *Config) (string, error) {
	if cfg == nil {
		return "", ErrMissingConfig
	}

	now := time.Now()
	claims := &Claims{
		UserID:         sub.UserID,
		Email:          sub.Email,
		Admin:          sub.Admin,
		SessionVersion: sub.SessionVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
			Audience:  []string{cfg.Audience},
			Subject:   sub.UserID,
		},
	}

	token := jwt.NewWithClaims(cfg.SigningMethod, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// clockSkew tolerated on exp and nbf between API replicas
const clockSkew = 30 * time.Second

// ValidateToken parses a session token. Every failure wraps ErrInvalidToken.
func ValidateToken(tokenString string, cfg *Config) (*Claims, error) {
	if cfg == nil {
		return nil, ErrMissingConfig
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{cfg.SigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
