package dashboard

import (
	"context"
	"testing"

	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/domain/video"
	"github.com/clipstream/clipstream/internal/storage/memory"
)

func TestStatsAndVideos(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil)

	creator, err := store.CreateUser(ctx, user.User{
		Username: "creator", Email: "creator@example.com", FullName: "Creator", PasswordHash: "h",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	fan, err := store.CreateUser(ctx, user.User{
		Username: "fan", Email: "fan@example.com", FullName: "Fan", PasswordHash: "h",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	first, err := store.CreateVideo(ctx, video.Video{
		OwnerID: creator.ID, VideoURL: "u", ThumbnailURL: "t", Title: "one", Views: 10, IsPublished: true,
	})
	if err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}
	if _, err := store.CreateVideo(ctx, video.Video{
		OwnerID: creator.ID, VideoURL: "u", ThumbnailURL: "t", Title: "two", Views: 5, IsPublished: false,
	}); err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}
	if _, err := store.ToggleVideoLike(ctx, fan.ID, first.ID); err != nil {
		t.Fatalf("ToggleVideoLike: %v", err)
	}
	if _, err := store.ToggleSubscription(ctx, fan.ID, creator.ID); err != nil {
		t.Fatalf("ToggleSubscription: %v", err)
	}

	stats, err := svc.Stats(ctx, creator.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// Dashboard counts drafts too: it is the owner's view of the channel.
	if stats.TotalVideos != 2 || stats.TotalViews != 15 || stats.TotalLikes != 1 || stats.TotalSubscribers != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	list, err := svc.Videos(ctx, creator.ID)
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("dashboard listing has %d videos, want both including the draft", len(list))
	}
}
