package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/middleware"
	"github.com/clipstream/clipstream/internal/pagination"
	"github.com/clipstream/clipstream/internal/services/videos"
	"github.com/clipstream/clipstream/internal/storage"
)

func (h *Handler) listVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := storage.VideoFilter{
		Query:     strings.TrimSpace(q.Get("query")),
		OwnerID:   strings.TrimSpace(q.Get("userId")),
		SortBy:    parseSort(q.Get("sortBy")),
		Ascending: strings.EqualFold(q.Get("sortType"), "asc"),
	}

	page, err := h.app.Videos.Search(r.Context(), filter, pagination.FromQuery(q))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, page, "videos fetched successfully")
}

// parseSort whitelists the sort field; anything unknown sorts by recency.
func parseSort(raw string) storage.VideoSort {
	switch storage.VideoSort(strings.TrimSpace(raw)) {
	case storage.SortViews:
		return storage.SortViews
	case storage.SortDuration:
		return storage.SortDuration
	case storage.SortTitle:
		return storage.SortTitle
	default:
		return storage.SortCreatedAt
	}
}

func (h *Handler) publishVideo(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		respondError(w, h.log, err)
		return
	}

	videoFile, videoClose, err := fileUpload(r, "videoFile")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if videoClose != nil {
		defer videoClose.Close()
	}
	thumbnail, thumbClose, err := fileUpload(r, "thumbnail")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if thumbClose != nil {
		defer thumbClose.Close()
	}

	var duration float64
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, h.log, apperr.BadRequest("duration must be a number"))
			return
		}
	}

	created, err := h.app.Videos.Publish(r.Context(), middleware.UserID(r.Context()), videos.PublishInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Duration:    duration,
		Video:       videoFile,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, created, "video published successfully")
}

func (h *Handler) getVideo(w http.ResponseWriter, r *http.Request) {
	detail, err := h.app.Videos.Get(r.Context(), chi.URLParam(r, "videoId"), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, detail, "video fetched successfully")
}

func (h *Handler) updateVideo(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		respondError(w, h.log, err)
		return
	}

	thumbnail, thumbClose, err := fileUpload(r, "thumbnail")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if thumbClose != nil {
		defer thumbClose.Close()
	}

	in := videos.UpdateInput{Thumbnail: thumbnail}
	if vals, ok := r.MultipartForm.Value["title"]; ok && len(vals) > 0 {
		in.Title = &vals[0]
	}
	if vals, ok := r.MultipartForm.Value["description"]; ok && len(vals) > 0 {
		in.Description = &vals[0]
	}

	updated, err := h.app.Videos.Update(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "videoId"), in)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, updated, "video updated successfully")
}

func (h *Handler) deleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Videos.Delete(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "videoId")); err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, nil, "video deleted successfully")
}

func (h *Handler) togglePublish(w http.ResponseWriter, r *http.Request) {
	updated, err := h.app.Videos.TogglePublish(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "videoId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"isPublished": updated.IsPublished}, "publish state toggled successfully")
}
