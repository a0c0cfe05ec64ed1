package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/middleware"
	"github.com/clipstream/clipstream/pkg/logger"
)

// envelope is the uniform response body. Every success and every failure is
// wrapped the same way so clients branch on success alone.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	})
}

// errorEnvelope is the failure body. It always carries an errors array, even
// when empty, so clients can rely on the field being present.
type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// respondError maps any error through the apperr taxonomy. Internal causes
// are logged but never leaked to the client.
func respondError(w http.ResponseWriter, log *logger.Logger, err error) {
	appErr := apperr.From(err)
	if appErr.Code == apperr.CodeInternal {
		log.WithError(err).Error("request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		StatusCode: appErr.Status,
		Message:    appErr.Message,
		Success:    false,
		Errors:     []string{},
	})
}

// decodeJSON strictly decodes a request body into dst.
func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	return nil
}

const maxUploadBytes = 256 << 20

// parseMultipart prepares the request's multipart form.
func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return apperr.BadRequest("invalid multipart form")
	}
	return nil
}

// fileUpload extracts one uploaded file; a missing field returns nil without
// error so callers decide whether it is required.
func fileUpload(r *http.Request, field string) (*media.Upload, io.Closer, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, apperr.BadRequest(fmt.Sprintf("invalid %s upload", field))
	}
	return &media.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}, file, nil
}

// refreshTokenCookie is the cookie carrying the refresh credential.
const refreshTokenCookie = "refreshToken"

// setSessionCookies installs both tokens as httpOnly cookies.
func (h *Handler) setSessionCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.app.Issuer.AccessTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.app.Issuer.RefreshTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookies expires both session cookies.
func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
