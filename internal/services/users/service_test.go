package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/storage/memory"
	"github.com/clipstream/clipstream/internal/token"
)

func newService(t *testing.T) (*Service, *media.MemoryStore) {
	t.Helper()
	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	blobs := media.NewMemoryStore()
	return New(memory.New(), issuer, blobs, nil), blobs
}

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		FullName: "User " + username,
		Password: "sw0rdfish",
		Avatar:   &media.Upload{Filename: "avatar.png", ContentType: "image/png", Content: strings.NewReader("png")},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, blobs := newService(t)

	u, err := svc.Register(ctx, registerInput("Alice"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("username = %q, want lowercased alice", u.Username)
	}
	if u.AvatarURL == "" {
		t.Fatal("avatar URL not set")
	}
	if _, ok := blobs.Get(u.AvatarURL); !ok {
		t.Fatalf("avatar blob %q not stored", u.AvatarURL)
	}

	sess, err := svc.Login(ctx, "ALICE", "sw0rdfish")
	if err != nil {
		t.Fatalf("Login by username: %v", err)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatal("login did not issue a token pair")
	}
	if _, err := svc.Login(ctx, "alice@example.com", "sw0rdfish"); err != nil {
		t.Fatalf("Login by email: %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, apperr.Unauthorized("")) {
		t.Fatalf("bad password error = %v, want Unauthorized", err)
	}
	if _, err := svc.Login(ctx, "nobody", "sw0rdfish"); !errors.Is(err, apperr.Unauthorized("")) {
		t.Fatalf("unknown user error = %v, want Unauthorized", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	in := registerInput("alice")
	in.Avatar = nil
	if _, err := svc.Register(ctx, in); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("missing avatar error = %v, want BadRequest", err)
	}

	in = registerInput("alice")
	in.Password = "short"
	if _, err := svc.Register(ctx, in); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("short password error = %v, want BadRequest", err)
	}

	if _, err := svc.Register(ctx, registerInput("alice")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	dup := registerInput("other")
	dup.Email = "ALICE@example.com"
	if _, err := svc.Register(ctx, dup); !errors.Is(err, apperr.Conflict("")) {
		t.Fatalf("duplicate email error = %v, want Conflict", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if _, err := svc.Register(ctx, registerInput("alice")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := svc.Login(ctx, "alice", "sw0rdfish")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := svc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == sess.RefreshToken {
		t.Fatal("refresh did not rotate the token")
	}

	// The spent token is dead even though its signature still verifies.
	if _, err := svc.Refresh(ctx, sess.RefreshToken); !errors.Is(err, apperr.Unauthorized("")) {
		t.Fatalf("reused token error = %v, want Unauthorized", err)
	}
	// The newest one still works.
	if _, err := svc.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("Refresh with rotated token: %v", err)
	}

	if _, err := svc.Refresh(ctx, "not-a-jwt"); !errors.Is(err, apperr.Unauthorized("")) {
		t.Fatalf("garbage token error = %v, want Unauthorized", err)
	}
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	u, err := svc.Register(ctx, registerInput("alice"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := svc.Login(ctx, "alice", "sw0rdfish")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(ctx, u.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, sess.RefreshToken); !errors.Is(err, apperr.Unauthorized("")) {
		t.Fatalf("refresh after logout error = %v, want Unauthorized", err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	u, err := svc.Register(ctx, registerInput("alice"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "wrong", "newpassword"); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("wrong old password error = %v, want BadRequest", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "sw0rdfish", "newpassword"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "newpassword"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "sw0rdfish"); !errors.Is(err, apperr.Unauthorized("")) {
		t.Fatalf("old password still accepted: %v", err)
	}
}

func TestUpdateAvatarReplacesBlob(t *testing.T) {
	ctx := context.Background()
	svc, blobs := newService(t)

	u, err := svc.Register(ctx, registerInput("alice"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	old := u.AvatarURL

	updated, err := svc.UpdateAvatar(ctx, u.ID, &media.Upload{
		Filename: "new.png", ContentType: "image/png", Content: strings.NewReader("new"),
	})
	if err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}
	if updated.AvatarURL == old {
		t.Fatal("avatar URL unchanged after update")
	}
	if _, ok := blobs.Get(old); ok {
		t.Fatal("old avatar blob not cleaned up")
	}
	if _, ok := blobs.Get(updated.AvatarURL); !ok {
		t.Fatal("new avatar blob not stored")
	}
}

func TestChannelProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if _, err := svc.Register(ctx, registerInput("creator")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	profile, err := svc.ChannelProfile(ctx, "creator", "")
	if err != nil {
		t.Fatalf("ChannelProfile: %v", err)
	}
	if profile.Username != "creator" || profile.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if _, err := svc.ChannelProfile(ctx, "ghost", ""); !errors.Is(err, apperr.NotFound("")) {
		t.Fatalf("unknown channel error = %v, want NotFound", err)
	}
}
