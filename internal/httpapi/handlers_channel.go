package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/clipstream/internal/middleware"
)

// Playlists --------------------------------------------------------------

func (h *Handler) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondError(w, h.log, err)
		return
	}

	created, err := h.app.Playlists.Create(r.Context(), middleware.UserID(r.Context()), payload.Name, payload.Description)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, created, "playlist created successfully")
}

func (h *Handler) getPlaylist(w http.ResponseWriter, r *http.Request) {
	detail, err := h.app.Playlists.Get(r.Context(), chi.URLParam(r, "playlistId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, detail, "playlist fetched successfully")
}

func (h *Handler) updatePlaylist(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondError(w, h.log, err)
		return
	}

	updated, err := h.app.Playlists.Update(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "playlistId"), payload.Name, payload.Description)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, updated, "playlist updated successfully")
}

func (h *Handler) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Playlists.Delete(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "playlistId")); err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, nil, "playlist deleted successfully")
}

func (h *Handler) addPlaylistVideo(w http.ResponseWriter, r *http.Request) {
	updated, err := h.app.Playlists.AddVideo(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "playlistId"), chi.URLParam(r, "videoId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, updated, "video added to playlist")
}

func (h *Handler) removePlaylistVideo(w http.ResponseWriter, r *http.Request) {
	updated, err := h.app.Playlists.RemoveVideo(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "playlistId"), chi.URLParam(r, "videoId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, updated, "video removed from playlist")
}

func (h *Handler) userPlaylists(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Playlists.ForUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, result, "playlists fetched successfully")
}

// Tweets -----------------------------------------------------------------

func (h *Handler) createTweet(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondError(w, h.log, err)
		return
	}

	created, err := h.app.Tweets.Create(r.Context(), middleware.UserID(r.Context()), payload.Content)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, created, "tweet created successfully")
}

func (h *Handler) userTweets(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Tweets.ForUser(r.Context(), chi.URLParam(r, "userId"), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, result, "tweets fetched successfully")
}

func (h *Handler) updateTweet(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondError(w, h.log, err)
		return
	}

	updated, err := h.app.Tweets.Update(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "tweetId"), payload.Content)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, updated, "tweet updated successfully")
}

func (h *Handler) deleteTweet(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Tweets.Delete(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "tweetId")); err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, nil, "tweet deleted successfully")
}

// Dashboard --------------------------------------------------------------

func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Dashboard.Stats(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, stats, "channel stats fetched successfully")
}

func (h *Handler) dashboardVideos(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Dashboard.Videos(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, result, "channel videos fetched successfully")
}
