package token

import (
	"testing"
	"time"

	"github.com/clipstream/clipstream/internal/domain/user"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer(Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return iss
}

func TestAccessTokenRoundTrip(t *testing.T) {
	iss := testIssuer(t)
	u := user.User{ID: "user-1", Username: "alice", Email: "alice@example.com", FullName: "Alice"}

	signed, err := iss.AccessToken(u)
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}

	claims, err := iss.VerifyAccess(signed)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Subject != u.ID {
		t.Fatalf("subject = %q, want %q", claims.Subject, u.ID)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("identity claims not carried: %+v", claims)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	iss := testIssuer(t)

	signed, err := iss.RefreshToken("user-2")
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	userID, err := iss.VerifyRefresh(signed)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if userID != "user-2" {
		t.Fatalf("userID = %q, want user-2", userID)
	}
}

func TestTokenFamiliesAreDistinct(t *testing.T) {
	iss := testIssuer(t)

	access, err := iss.AccessToken(user.User{ID: "user-3"})
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	refresh, err := iss.RefreshToken("user-3")
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}

	if _, err := iss.VerifyRefresh(access); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
	if _, err := iss.VerifyAccess(refresh); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	iss, err := NewIssuer(Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     -time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	// Negative TTL falls back to the default, so build an expired token by
	// issuing against a short-lived issuer instead.
	short, err := NewIssuer(Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Nanosecond,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	signed, err := short.AccessToken(user.User{ID: "user-4"})
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := iss.VerifyAccess(signed); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestIssuerConfigValidation(t *testing.T) {
	if _, err := NewIssuer(Config{AccessSecret: "", RefreshSecret: "x"}); err == nil {
		t.Fatal("missing access secret accepted")
	}
	if _, err := NewIssuer(Config{AccessSecret: "same", RefreshSecret: "same"}); err == nil {
		t.Fatal("identical secrets accepted")
	}
}
