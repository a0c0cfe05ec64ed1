package playlists

import (
	"context"
	"errors"
	"testing"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/domain/video"
	"github.com/clipstream/clipstream/internal/storage/memory"
)

func setup(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store, nil), store
}

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

func seedVideo(t *testing.T, store *memory.Store, ownerID string, views int64, published bool) video.Video {
	t.Helper()
	v, err := store.CreateVideo(context.Background(), video.Video{
		OwnerID: ownerID, VideoURL: "u", ThumbnailURL: "t", Title: "clip", Views: views, IsPublished: published,
	})
	if err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}
	return v
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	u := seedUser(t, store, "alice")

	if _, err := svc.Create(ctx, u.ID, "   ", ""); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("blank name error = %v, want BadRequest", err)
	}
	pl, err := svc.Create(ctx, u.ID, "  Watch later  ", "queue")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pl.Name != "Watch later" {
		t.Fatalf("name = %q, want trimmed", pl.Name)
	}
}

func TestMembershipSetSemantics(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	u := seedUser(t, store, "alice")
	v := seedVideo(t, store, u.ID, 7, true)

	pl, err := svc.Create(ctx, u.ID, "mix", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 2; i++ {
		updated, err := svc.AddVideo(ctx, u.ID, pl.ID, v.ID)
		if err != nil {
			t.Fatalf("AddVideo %d: %v", i, err)
		}
		if len(updated.VideoIDs) != 1 {
			t.Fatalf("add %d left %d members, want 1", i, len(updated.VideoIDs))
		}
	}

	updated, err := svc.RemoveVideo(ctx, u.ID, pl.ID, v.ID)
	if err != nil {
		t.Fatalf("RemoveVideo: %v", err)
	}
	if len(updated.VideoIDs) != 0 {
		t.Fatalf("remove left %d members, want 0", len(updated.VideoIDs))
	}
	if _, err := svc.RemoveVideo(ctx, u.ID, pl.ID, v.ID); !errors.Is(err, apperr.NotFound("")) {
		t.Fatalf("removing a non-member error = %v, want NotFound", err)
	}
}

func TestDetailAggregates(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	u := seedUser(t, store, "alice")
	first := seedVideo(t, store, u.ID, 10, true)
	second := seedVideo(t, store, u.ID, 5, true)
	draft := seedVideo(t, store, u.ID, 100, false)

	pl, err := svc.Create(ctx, u.ID, "mix", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, v := range []video.Video{first, second, draft} {
		if _, err := svc.AddVideo(ctx, u.ID, pl.ID, v.ID); err != nil {
			t.Fatalf("AddVideo: %v", err)
		}
	}

	detail, err := svc.Get(ctx, pl.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.TotalVideos != 2 {
		t.Fatalf("TotalVideos = %d, want 2 (draft excluded)", detail.TotalVideos)
	}
	if detail.TotalViews != 15 {
		t.Fatalf("TotalViews = %d, want 15", detail.TotalViews)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	owner := seedUser(t, store, "alice")
	other := seedUser(t, store, "bob")
	v := seedVideo(t, store, owner.ID, 0, true)

	pl, err := svc.Create(ctx, owner.ID, "mine", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(ctx, other.ID, pl.ID, "stolen", ""); !errors.Is(err, apperr.Forbidden("")) {
		t.Fatalf("foreign update error = %v, want Forbidden", err)
	}
	if _, err := svc.AddVideo(ctx, other.ID, pl.ID, v.ID); !errors.Is(err, apperr.Forbidden("")) {
		t.Fatalf("foreign add error = %v, want Forbidden", err)
	}
	if err := svc.Delete(ctx, other.ID, pl.ID); !errors.Is(err, apperr.Forbidden("")) {
		t.Fatalf("foreign delete error = %v, want Forbidden", err)
	}
}

func TestForUser(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	u := seedUser(t, store, "alice")

	lists, err := svc.ForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if lists == nil || len(lists) != 0 {
		t.Fatalf("empty listing should be a non-nil empty slice, got %#v", lists)
	}

	if _, err := svc.Create(ctx, u.ID, "one", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, u.ID, "two", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	lists, err = svc.ForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("ForUser returned %d playlists, want 2", len(lists))
	}
}
