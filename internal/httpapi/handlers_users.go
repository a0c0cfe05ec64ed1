package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/middleware"
	"github.com/clipstream/clipstream/internal/services/users"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		respondError(w, h.log, err)
		return
	}

	avatar, avatarClose, err := fileUpload(r, "avatar")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if avatarClose != nil {
		defer avatarClose.Close()
	}
	cover, coverClose, err := fileUpload(r, "coverImage")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if coverClose != nil {
		defer coverClose.Close()
	}

	created, err := h.app.Users.Register(r.Context(), users.RegisterInput{
		Username:   r.FormValue("username"),
		Email:      r.FormValue("email"),
		FullName:   r.FormValue("fullName"),
		Password:   r.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, created, "user registered successfully")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondError(w, h.log, err)
		return
	}
	login := payload.Username
	if login == "" {
		login = payload.Email
	}

	session, err := h.app.Users.Login(r.Context(), login, payload.Password)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	h.setSessionCookies(w, session.AccessToken, session.RefreshToken)
	respond(w, http.StatusOK, session, "user logged in successfully")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Users.Logout(r.Context(), middleware.UserID(r.Context())); err != nil {
		respondError(w, h.log, err)
		return
	}
	h.clearSessionCookies(w)
	respond(w, http.StatusOK, nil, "user logged out successfully")
}

// refreshToken accepts the refresh credential from the cookie or the body and
// rotates the session.
func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" && r.Body != nil && r.ContentLength != 0 {
		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			respondError(w, h.log, err)
			return
		}
		presented = payload.RefreshToken
	}

	session, err := h.app.Users.Refresh(r.Context(), presented)
	if err != nil {
		metrics.RecordSessionRefresh("rejected")
		respondError(w, h.log, err)
		return
	}
	metrics.RecordSessionRefresh("rotated")
	h.setSessionCookies(w, session.AccessToken, session.RefreshToken)
	respond(w, http.StatusOK, map[string]string{
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
	}, "access token refreshed")
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondError(w, h.log, err)
		return
	}
	if payload.ConfirmPassword != payload.NewPassword {
		respondError(w, h.log, apperr.BadRequest("new password and confirmation do not match"))
		return
	}

	if err := h.app.Users.ChangePassword(r.Context(), middleware.UserID(r.Context()), payload.OldPassword, payload.NewPassword); err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, nil, "password changed successfully")
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())
	respond(w, http.StatusOK, u, "current user fetched successfully")
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondError(w, h.log, err)
		return
	}

	updated, err := h.app.Users.UpdateAccount(r.Context(), middleware.UserID(r.Context()), payload.FullName, payload.Email)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, updated, "account details updated successfully")
}

func (h *Handler) updateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.app.Users.UpdateAvatar, "avatar updated successfully")
}

func (h *Handler) updateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.app.Users.UpdateCoverImage, "cover image updated successfully")
}

func (h *Handler) updateImage(w http.ResponseWriter, r *http.Request, field string, update func(context.Context, string, *media.Upload) (user.User, error), message string) {
	if err := parseMultipart(r); err != nil {
		respondError(w, h.log, err)
		return
	}
	up, closer, err := fileUpload(r, field)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	updated, err := update(r.Context(), middleware.UserID(r.Context()), up)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, updated, message)
}

func (h *Handler) channelProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.app.Users.ChannelProfile(r.Context(), chi.URLParam(r, "username"), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, profile, "channel profile fetched successfully")
}

func (h *Handler) watchHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.app.Users.WatchHistory(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, history, "watch history fetched successfully")
}
