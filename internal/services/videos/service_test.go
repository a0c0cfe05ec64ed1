package videos

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/pagination"
	"github.com/clipstream/clipstream/internal/storage"
	"github.com/clipstream/clipstream/internal/storage/memory"
)

func setup(t *testing.T) (*Service, *memory.Store, *media.MemoryStore) {
	t.Helper()
	store := memory.New()
	blobs := media.NewMemoryStore()
	return New(store, store, blobs, nil), store, blobs
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

func publishInput(title string) PublishInput {
	return PublishInput{
		Title:     title,
		Duration:  42.5,
		Video:     &media.Upload{Filename: "clip.mp4", ContentType: "video/mp4", Content: strings.NewReader("mp4")},
		Thumbnail: &media.Upload{Filename: "thumb.jpg", ContentType: "image/jpeg", Content: strings.NewReader("jpg")},
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	svc, store, blobs := setup(t)
	owner := seedUser(t, store, "alice")

	v, err := svc.Publish(ctx, owner.ID, publishInput("My first clip"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !v.IsPublished {
		t.Fatal("new video should be published")
	}
	if _, ok := blobs.Get(v.VideoURL); !ok {
		t.Fatal("video blob not stored")
	}
	if _, ok := blobs.Get(v.ThumbnailURL); !ok {
		t.Fatal("thumbnail blob not stored")
	}

	in := publishInput("")
	if _, err := svc.Publish(ctx, owner.ID, in); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("missing title error = %v, want BadRequest", err)
	}
	in = publishInput("no file")
	in.Video = nil
	if _, err := svc.Publish(ctx, owner.ID, in); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("missing file error = %v, want BadRequest", err)
	}
}

func TestGetCountsViewsAndHistory(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)
	owner := seedUser(t, store, "alice")
	viewer := seedUser(t, store, "bob")

	v, err := svc.Publish(ctx, owner.ID, publishInput("watch me"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Get(ctx, v.ID, viewer.ID); err != nil {
			t.Fatalf("Get %d: %v", i, err)
		}
	}
	detail, err := svc.Get(ctx, v.ID, "")
	if err != nil {
		t.Fatalf("anonymous Get: %v", err)
	}
	if detail.Views != 4 {
		t.Fatalf("views = %d, want 4", detail.Views)
	}

	history, err := store.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("WatchHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("repeat views produced %d history entries, want 1", len(history))
	}
}

func TestGetUnpublishedVisibility(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)
	owner := seedUser(t, store, "alice")
	other := seedUser(t, store, "bob")

	v, err := svc.Publish(ctx, owner.ID, publishInput("draft"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := svc.TogglePublish(ctx, owner.ID, v.ID); err != nil {
		t.Fatalf("TogglePublish: %v", err)
	}

	if _, err := svc.Get(ctx, v.ID, owner.ID); err != nil {
		t.Fatalf("owner cannot see own draft: %v", err)
	}
	if _, err := svc.Get(ctx, v.ID, other.ID); !errors.Is(err, apperr.NotFound("")) {
		t.Fatalf("draft visible to non-owner: %v", err)
	}
	if _, err := svc.Get(ctx, v.ID, ""); !errors.Is(err, apperr.NotFound("")) {
		t.Fatalf("draft visible anonymously: %v", err)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)
	owner := seedUser(t, store, "alice")
	other := seedUser(t, store, "bob")

	v, err := svc.Publish(ctx, owner.ID, publishInput("mine"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	title := "hijacked"
	if _, err := svc.Update(ctx, other.ID, v.ID, UpdateInput{Title: &title}); !errors.Is(err, apperr.Forbidden("")) {
		t.Fatalf("foreign update error = %v, want Forbidden", err)
	}
	if err := svc.Delete(ctx, other.ID, v.ID); !errors.Is(err, apperr.Forbidden("")) {
		t.Fatalf("foreign delete error = %v, want Forbidden", err)
	}
	if _, err := svc.TogglePublish(ctx, other.ID, v.ID); !errors.Is(err, apperr.Forbidden("")) {
		t.Fatalf("foreign toggle error = %v, want Forbidden", err)
	}
	if _, err := svc.Update(ctx, other.ID, "not-a-uuid", UpdateInput{}); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("malformed id error = %v, want BadRequest", err)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)
	owner := seedUser(t, store, "alice")

	v, err := svc.Publish(ctx, owner.ID, publishInput("original"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	desc := "now with a description"
	updated, err := svc.Update(ctx, owner.ID, v.ID, UpdateInput{Description: &desc})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "original" {
		t.Fatalf("title changed to %q on description-only update", updated.Title)
	}
	if updated.Description != desc {
		t.Fatalf("description = %q, want %q", updated.Description, desc)
	}
}

func TestDeleteCleansBlobs(t *testing.T) {
	ctx := context.Background()
	svc, store, blobs := setup(t)
	owner := seedUser(t, store, "alice")

	v, err := svc.Publish(ctx, owner.ID, publishInput("doomed"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := svc.Delete(ctx, owner.ID, v.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetVideo(ctx, v.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("video row survived delete: %v", err)
	}
	if blobs.Len() != 0 {
		t.Fatalf("%d blobs left after delete, want 0", blobs.Len())
	}
}

func TestSearchRejectsBadSort(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)
	owner := seedUser(t, store, "alice")
	if _, err := svc.Publish(ctx, owner.ID, publishInput("findable")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	page, err := svc.Search(ctx, storage.VideoFilter{Query: "find"}, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.TotalItems != 1 || len(page.Items) != 1 {
		t.Fatalf("search found %d/%d, want 1/1", len(page.Items), page.TotalItems)
	}
}
