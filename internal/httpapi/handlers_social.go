package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/middleware"
	"github.com/clipstream/clipstream/internal/pagination"
)

// Comments ---------------------------------------------------------------

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	page, err := h.app.Comments.List(r.Context(), chi.URLParam(r, "videoId"), middleware.UserID(r.Context()), pagination.FromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, page, "comments fetched successfully")
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondError(w, h.log, err)
		return
	}

	created, err := h.app.Comments.Add(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "videoId"), payload.Content)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, created, "comment added successfully")
}

func (h *Handler) updateComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondError(w, h.log, err)
		return
	}

	updated, err := h.app.Comments.Update(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "commentId"), payload.Content)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, updated, "comment updated successfully")
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Comments.Delete(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "commentId")); err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, nil, "comment deleted successfully")
}

// Likes ------------------------------------------------------------------

func (h *Handler) toggleVideoLike(w http.ResponseWriter, r *http.Request) {
	liked, err := h.app.Engagement.ToggleVideoLike(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "videoId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	metrics.RecordToggle("video_like", liked)
	respond(w, http.StatusOK, map[string]bool{"isLiked": liked}, "video like toggled")
}

func (h *Handler) toggleCommentLike(w http.ResponseWriter, r *http.Request) {
	liked, err := h.app.Engagement.ToggleCommentLike(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "commentId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	metrics.RecordToggle("comment_like", liked)
	respond(w, http.StatusOK, map[string]bool{"isLiked": liked}, "comment like toggled")
}

func (h *Handler) toggleTweetLike(w http.ResponseWriter, r *http.Request) {
	liked, err := h.app.Engagement.ToggleTweetLike(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "tweetId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	metrics.RecordToggle("tweet_like", liked)
	respond(w, http.StatusOK, map[string]bool{"isLiked": liked}, "tweet like toggled")
}

func (h *Handler) likedVideos(w http.ResponseWriter, r *http.Request) {
	liked, err := h.app.Engagement.LikedVideos(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, liked, "liked videos fetched successfully")
}

// Subscriptions ----------------------------------------------------------

func (h *Handler) toggleSubscription(w http.ResponseWriter, r *http.Request) {
	subscribed, err := h.app.Engagement.ToggleSubscription(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "channelId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	metrics.RecordToggle("subscription", subscribed)
	respond(w, http.StatusOK, map[string]bool{"isSubscribed": subscribed}, "subscription toggled")
}

func (h *Handler) channelSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.app.Engagement.Subscribers(r.Context(), chi.URLParam(r, "channelId"), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, subs, "subscribers fetched successfully")
}

func (h *Handler) subscribedChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.app.Engagement.SubscribedChannels(r.Context(), chi.URLParam(r, "subscriberId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, channels, "subscribed channels fetched successfully")
}
