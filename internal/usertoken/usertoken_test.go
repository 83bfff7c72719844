package usertoken

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t, Config{})
	token, err := m.Issue("u1", "pat", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u1" || claims.Username != "pat" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := newTestManager(t, Config{Secret: "secret-a"})
	verifier := newTestManager(t, Config{Secret: "secret-b"})
	token, err := issuer.Issue("u1", "pat", "member")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := newTestManager(t, Config{TTL: time.Second, Leeway: time.Millisecond})
	now := time.Now().UTC().Add(-time.Hour)
	claims := Claims{
		Role: "member",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "sarasavi-api",
			Audience:  jwt.ClaimStrings{"sarasavi-app"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	m := newTestManager(t, Config{})
	now := time.Now().UTC()
	claims := Claims{
		Role: "member",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "sarasavi-api",
			Audience:  jwt.ClaimStrings{"sarasavi-app"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Verify(token); err == nil || !strings.Contains(err.Error(), "subject") {
		t.Fatalf("expected missing subject error, got %v", err)
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	m := newTestManager(t, Config{})
	if _, err := m.Issue("  ", "pat", "member"); err == nil {
		t.Fatalf("expected error for blank user ID")
	}
}
