// Package auth issues and validates short-lived operator tokens for the
// admin surface. When no admin secret is configured the deployment is a demo
// and the admin surface is open; configuring a secret closes it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingToken  = errors.New("authorization token required")
	ErrInvalidSecret = errors.New("invalid admin secret")
)

// TokenManager handles operator token generation and validation.
type TokenManager struct {
	secretHash []byte
	signingKey []byte
	tokenTTL   time.Duration
}

// Claims are the operator session claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewTokenManager creates a token manager. secretHash is the bcrypt hash of
// the admin secret; when empty, Enabled reports false and the admin surface
// stays open. signingKey signs issued tokens and should be a strong random
// string.
func NewTokenManager(secretHash, signingKey string, tokenTTL time.Duration) *TokenManager {
	return &TokenManager{
		secretHash: []byte(secretHash),
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
	}
}

// Enabled reports whether an admin secret is configured.
func (m *TokenManager) Enabled() bool {
	return len(m.secretHash) > 0
}

// Exchange verifies the presented admin secret against the configured hash
// and issues a short-lived operator token.
func (m *TokenManager) Exchange(secret string) (string, error) {
	if !m.Enabled() {
		return "", ErrInvalidSecret
	}
	if err := bcrypt.CompareHashAndPassword(m.secretHash, []byte(secret)); err != nil {
		return "", ErrInvalidSecret
	}

	now := time.Now()
	claims := &Claims{
		Role: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate parses and validates an operator token, returning the claims if
// valid.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.signingKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
