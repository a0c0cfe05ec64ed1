package tweets

import (
	"context"
	"errors"
	"testing"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/storage/memory"
)

func seedUser(t *testing.T, store *memory.Store, username string) user.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), user.User{
		Username: username, Email: username + "@example.com", FullName: username, PasswordHash: "h",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestTweetLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	if _, err := svc.Create(ctx, alice.ID, "   "); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("blank content error = %v, want BadRequest", err)
	}

	tw, err := svc.Create(ctx, alice.ID, "hello world")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(ctx, bob.ID, tw.ID, "hijacked"); !errors.Is(err, apperr.Forbidden("")) {
		t.Fatalf("foreign update error = %v, want Forbidden", err)
	}
	updated, err := svc.Update(ctx, alice.ID, tw.ID, "edited")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Content != "edited" {
		t.Fatalf("content = %q, want edited", updated.Content)
	}

	list, err := svc.ForUser(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(list) != 1 || list[0].Content != "edited" {
		t.Fatalf("listing = %+v, want the edited tweet", list)
	}
	if list[0].Owner.Username != "alice" {
		t.Fatalf("owner = %q, want alice", list[0].Owner.Username)
	}

	if err := svc.Delete(ctx, alice.ID, tw.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err = svc.ForUser(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("ForUser after delete: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("listing after delete = %+v, want empty", list)
	}
}
