// Package playlist defines the playlist entity.
package playlist

import "time"

// Playlist is an owner-curated, ordered and deduplicated set of videos.
// VideoIDs holds the member video ids in insertion order.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
