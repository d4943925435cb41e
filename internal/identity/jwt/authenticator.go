// Package jwt implements token issuance with golang-jwt.
package jwt

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/actworks/control-tower/internal/domain"
)

// Authenticator issues HS256 access tokens and opaque refresh tokens.
type Authenticator struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// New creates an authenticator with the given signing secret and access
// token lifetime.
func New(secret string, accessTTL time.Duration) *Authenticator {
	return &Authenticator{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

type claims struct {
	Role string `json:"role"`
	jwtlib.RegisteredClaims
}

// GenerateAccessToken signs an access token for the user.
func (a *Authenticator) GenerateAccessToken(user domain.User) (string, error) {
	now := a.now()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims{
		Role: string(user.Role),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(a.accessTTL)),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses and verifies an access token, returning the
// user ID it was issued for.
func (a *Authenticator) ValidateAccessToken(tokenString string) (string, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return c.Subject, nil
}

// NewRefreshToken mints a random opaque refresh token.
func (a *Authenticator) NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
