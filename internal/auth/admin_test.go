package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestManager(t *testing.T, secret string, ttl time.Duration) *TokenManager {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash secret: %v", err)
	}
	return NewTokenManager(string(hash), "test-signing-key-0123456789abcdef", ttl)
}

func TestExchangeAndValidate(t *testing.T) {
	manager := newTestManager(t, "correct horse battery", time.Hour)

	token, err := manager.Exchange("correct horse battery")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Role != "operator" {
		t.Errorf("role = %q, want %q", claims.Role, "operator")
	}
}

func TestExchangeRejectsWrongSecret(t *testing.T) {
	manager := newTestManager(t, "correct horse battery", time.Hour)

	if _, err := manager.Exchange("wrong"); !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("expected ErrInvalidSecret, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	manager := newTestManager(t, "secret123", -time.Minute)

	token, err := manager.Exchange("secret123")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}

	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidateRejectsForeignToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash secret: %v", err)
	}
	issuer := NewTokenManager(string(hash), "signing-key-one", time.Hour)
	other := NewTokenManager(string(hash), "signing-key-two", time.Hour)

	token, err := issuer.Exchange("secret123")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}

	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestDisabledWithoutSecretHash(t *testing.T) {
	manager := NewTokenManager("", "signing-key", time.Hour)

	if manager.Enabled() {
		t.Error("expected manager without secret hash to be disabled")
	}
	if _, err := manager.Exchange("anything"); !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("expected ErrInvalidSecret from disabled manager, got %v", err)
	}
}
