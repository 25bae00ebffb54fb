package security

import (
	"testing"
	"time"
)

func TestJWTManagerSignAndParse(t *testing.T) {
	mgr := NewJWTManager("spendwise", "spendwise-api", "0123456789abcdef0123456789abcdef", time.Hour)

	raw, expiresAt, err := mgr.SignAccessToken(7, "alice")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expected future expiry")
	}

	claims, err := mgr.ParseAccessToken(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Subject != "7" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Username != "alice" {
		t.Fatalf("unexpected username %q", claims.Username)
	}
}

func TestJWTManagerRejectsForeignToken(t *testing.T) {
	mgr := NewJWTManager("spendwise", "spendwise-api", "0123456789abcdef0123456789abcdef", time.Hour)
	other := NewJWTManager("spendwise", "spendwise-api", "ffffffffffffffffffffffffffffffff", time.Hour)

	raw, _, err := other.SignAccessToken(7, "alice")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := mgr.ParseAccessToken(raw); err == nil {
		t.Fatal("expected parse failure for token signed with another secret")
	}
}

func TestJWTManagerRejectsExpiredToken(t *testing.T) {
	mgr := NewJWTManager("spendwise", "spendwise-api", "0123456789abcdef0123456789abcdef", -time.Minute)

	raw, _, err := mgr.SignAccessToken(7, "alice")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := mgr.ParseAccessToken(raw); err == nil {
		t.Fatal("expected parse failure for expired token")
	}
}

func TestJWTManagerRejectsGarbage(t *testing.T) {
	mgr := NewJWTManager("spendwise", "spendwise-api", "0123456789abcdef0123456789abcdef", time.Hour)
	if _, err := mgr.ParseAccessToken("not.a.jwt"); err == nil {
		t.Fatal("expected parse failure for garbage input")
	}
}
