package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"permits-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:   "secret",
		JWTIssuer:   "issuer",
		JWTAudience: "aud",
		SessionTTL:  2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := newTestManager(t)

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "user-1", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.Value == "" || tok.ID == "" {
		t.Fatalf("expected token and jti")
	}
	if !tok.ExpiresAt.Equal(now.Add(2 * time.Hour)) {
		t.Fatalf("expected default 2h ttl, got %v", tok.ExpiresAt)
	}

	claims, err := m.Verify(tok.Value, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.ID != tok.ID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "u", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(tok.Value, tok.ExpiresAt.Add(-time.Second)); err != nil {
		t.Fatalf("expected valid one second before exp, got %v", err)
	}
	if _, err := m.Verify(tok.Value, tok.ExpiresAt); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at exp, got %v", err)
	}
	if _, err := m.Verify(tok.Value, tok.ExpiresAt.Add(time.Hour)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after exp, got %v", err)
	}
}

func TestVerify_LeewayExtendsExpiry(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", SessionTTL: time.Hour, SessionLeeway: 30 * time.Second})
	now := time.Unix(1700000000, 0).UTC()
	tok, _ := m.Issue(now, "u", 0)
	if _, err := m.Verify(tok.Value, tok.ExpiresAt.Add(10*time.Second)); err != nil {
		t.Fatalf("expected leeway to accept, got %v", err)
	}
}

func TestVerify_TamperedExpiredTokenIsInvalid(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()
	tok, _ := m.Issue(now, "u", time.Minute)

	parts := strings.Split(tok.Value, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err := m.Verify(tampered, now.Add(time.Hour))
	if !errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_RejectsOtherSecretAndAlgorithm(t *testing.T) {
	m := newTestManager(t)
	other, _ := NewManager(config.AuthConfig{JWTSecret: "other", JWTIssuer: "issuer", JWTAudience: "aud"})
	now := time.Now()

	tok, _ := other.Issue(now, "u", 0)
	if _, err := m.Verify(tok.Value, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u",
		Issuer:    "issuer",
		Audience:  jwt.ClaimStrings{"aud"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Verify(none, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg none, got %v", err)
	}

	if _, err := m.Verify("not-a-jwt", now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "issuer",
		Audience:  jwt.ClaimStrings{"aud"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Verify(raw, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestIssue_RequiresSubject(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Issue(time.Now(), " ", 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
