package security

import (
	"testing"
	"time"
)

func testState() AccountState {
	last := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return AccountState{
		UserID:       42,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		IsActive:     false,
		LastLoginAt:  &last,
	}
}

func TestLinkTokenRoundTrip(t *testing.T) {
	issuer := NewLinkTokenIssuer("0123456789abcdef0123456789abcdef", 72*time.Hour)
	state := testState()

	token := issuer.Issue(state)
	if !issuer.Check(state, token) {
		t.Fatal("expected freshly issued token to check")
	}
}

func TestLinkTokenInvalidatedByStateChange(t *testing.T) {
	issuer := NewLinkTokenIssuer("0123456789abcdef0123456789abcdef", 72*time.Hour)
	base := testState()
	token := issuer.Issue(base)

	t.Run("password change", func(t *testing.T) {
		changed := base
		changed.PasswordHash = "$argon2id$v=19$m=65536,t=3,p=2$b3RoZXI$b3RoZXI"
		if issuer.Check(changed, token) {
			t.Fatal("token survived password change")
		}
	})

	t.Run("activation", func(t *testing.T) {
		changed := base
		changed.IsActive = true
		if issuer.Check(changed, token) {
			t.Fatal("token survived activation")
		}
	})

	t.Run("login", func(t *testing.T) {
		changed := base
		later := changed.LastLoginAt.Add(time.Minute)
		changed.LastLoginAt = &later
		if issuer.Check(changed, token) {
			t.Fatal("token survived login timestamp bump")
		}
	})

	t.Run("different user", func(t *testing.T) {
		changed := base
		changed.UserID = 43
		if issuer.Check(changed, token) {
			t.Fatal("token checked for a different user")
		}
	})
}

func TestLinkTokenExpiry(t *testing.T) {
	issuer := NewLinkTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	state := testState()

	issued := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }
	token := issuer.Issue(state)

	issuer.now = func() time.Time { return issued.Add(59 * time.Minute) }
	if !issuer.Check(state, token) {
		t.Fatal("token rejected before TTL")
	}

	issuer.now = func() time.Time { return issued.Add(61 * time.Minute) }
	if issuer.Check(state, token) {
		t.Fatal("token accepted after TTL")
	}

	// Clock skew: a token stamped in the future never checks.
	issuer.now = func() time.Time { return issued.Add(-time.Minute) }
	if issuer.Check(state, token) {
		t.Fatal("future-dated token accepted")
	}
}

func TestLinkTokenMalformed(t *testing.T) {
	issuer := NewLinkTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	state := testState()

	for _, token := range []string{
		"",
		"no-separator-at-all!",
		"-abcdef",
		"1kzq9a-",
		"!!!!-abcdef",
		issuer.Issue(state) + "x",
	} {
		if issuer.Check(state, token) {
			t.Fatalf("malformed token %q accepted", token)
		}
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	for _, id := range []uint{1, 42, 99999} {
		uid := EncodeUID(id)
		got, err := DecodeUID(uid)
		if err != nil {
			t.Fatalf("decode %q: %v", uid, err)
		}
		if got != id {
			t.Fatalf("uid round trip mismatch: got %d want %d", got, id)
		}
	}
}

func TestDecodeUIDRejectsMalformedInput(t *testing.T) {
	for _, uid := range []string{"", "%%%", "bm90LWEtbnVtYmVy", "MA"} {
		if _, err := DecodeUID(uid); err != ErrInvalidReference {
			t.Fatalf("uid %q: expected ErrInvalidReference, got %v", uid, err)
		}
	}
}
