package comments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/domain/video"
	"github.com/clipstream/clipstream/internal/pagination"
	"github.com/clipstream/clipstream/internal/storage/memory"
)

func setup(t *testing.T) (*Service, *memory.Store, user.User, video.Video) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	u, err := store.CreateUser(ctx, user.User{
		Username: "alice", Email: "alice@example.com", FullName: "Alice", PasswordHash: "h",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	v, err := store.CreateVideo(ctx, video.Video{
		OwnerID: u.ID, VideoURL: "u", ThumbnailURL: "t", Title: "clip", IsPublished: true,
	})
	if err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}
	return New(store, nil), store, u, v
}

func TestAddValidates(t *testing.T) {
	ctx := context.Background()
	svc, _, u, v := setup(t)

	c, err := svc.Add(ctx, u.ID, v.ID, "  first!  ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.Content != "first!" {
		t.Fatalf("content = %q, want trimmed", c.Content)
	}

	if _, err := svc.Add(ctx, u.ID, v.ID, "   "); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("blank content error = %v, want BadRequest", err)
	}
	if _, err := svc.Add(ctx, u.ID, "bad-id", "hi"); !errors.Is(err, apperr.BadRequest("")) {
		t.Fatalf("bad video id error = %v, want BadRequest", err)
	}
	if _, err := svc.Add(ctx, u.ID, "e2b6a7ce-0000-4000-8000-000000000000", "hi"); !errors.Is(err, apperr.NotFound("")) {
		t.Fatalf("missing video error = %v, want NotFound", err)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	svc, store, u, v := setup(t)
	other, err := store.CreateUser(ctx, user.User{
		Username: "bob", Email: "bob@example.com", FullName: "Bob", PasswordHash: "h",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	c, err := svc.Add(ctx, u.ID, v.ID, "mine")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := svc.Update(ctx, other.ID, c.ID, "stolen"); !errors.Is(err, apperr.Forbidden("")) {
		t.Fatalf("foreign update error = %v, want Forbidden", err)
	}
	if err := svc.Delete(ctx, other.ID, c.ID); !errors.Is(err, apperr.Forbidden("")) {
		t.Fatalf("foreign delete error = %v, want Forbidden", err)
	}
	if err := svc.Delete(ctx, u.ID, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestListPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _, u, v := setup(t)

	for i := 0; i < 15; i++ {
		if _, err := svc.Add(ctx, u.ID, v.ID, fmt.Sprintf("comment %d", i)); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	page, err := svc.List(ctx, v.ID, u.ID, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalItems != 15 || page.TotalPages != 2 || !page.HasNext {
		t.Fatalf("envelope = %+v, want 15 items over 2 pages", page)
	}
	if len(page.Items) != 10 {
		t.Fatalf("page 1 has %d items, want 10", len(page.Items))
	}

	page, err = svc.List(ctx, v.ID, u.ID, pagination.Params{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(page.Items) != 5 || page.HasNext || !page.HasPrev {
		t.Fatalf("page 2 envelope = %+v, want 5 items and no next", page)
	}
}
