package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clipstream/clipstream/internal/app"
	"github.com/clipstream/clipstream/internal/config"
	"github.com/clipstream/clipstream/internal/token"
)

type testEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	application, err := app.New(token.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
	}, app.Stores{}, nil, nil)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	router := NewRouter(application, config.ServerConfig{
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}, nil)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func decodeEnvelope(t *testing.T, res *http.Response) testEnvelope {
	t.Helper()
	defer res.Body.Close()
	var env testEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, filename := range files {
		part, err := mw.CreateFormFile(name, filename)
		if err != nil {
			t.Fatalf("create file %s: %v", name, err)
		}
		if _, err := io.Copy(part, strings.NewReader("file-content")); err != nil {
			t.Fatalf("write file %s: %v", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func registerAndLogin(t *testing.T, ts *httptest.Server, client *http.Client, username string) {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"fullName": "User " + username,
		"password": "sw0rdfish",
	}, map[string]string{
		"avatar": "avatar.png",
	})
	res, err := client.Post(ts.URL+"/api/v1/users/register", contentType, body)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	env := decodeEnvelope(t, res)
	if res.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("register status = %d, envelope = %+v", res.StatusCode, env)
	}

	login := fmt.Sprintf(`{"username":%q,"password":"sw0rdfish"}`, username)
	res, err = client.Post(ts.URL+"/api/v1/users/login", "application/json", strings.NewReader(login))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	env = decodeEnvelope(t, res)
	if res.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("login status = %d, envelope = %+v", res.StatusCode, env)
	}
}

func publishVideo(t *testing.T, ts *httptest.Server, client *http.Client, title string) string {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"title":    title,
		"duration": "12.5",
	}, map[string]string{
		"videoFile": "clip.mp4",
		"thumbnail": "thumb.jpg",
	})
	res, err := client.Post(ts.URL+"/api/v1/videos/", contentType, body)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	env := decodeEnvelope(t, res)
	if res.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("publish status = %d, envelope = %+v", res.StatusCode, env)
	}
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode video: %v", err)
	}
	if v.ID == "" {
		t.Fatal("published video has no id")
	}
	return v.ID
}

func TestHealthcheck(t *testing.T) {
	ts := newTestServer(t)
	res, err := http.Get(ts.URL + "/healthcheck")
	if err != nil {
		t.Fatalf("healthcheck: %v", err)
	}
	env := decodeEnvelope(t, res)
	if res.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("healthcheck status = %d, envelope = %+v", res.StatusCode, env)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/api/v1/videos/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	env := decodeEnvelope(t, res)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", res.StatusCode)
	}
	if env.Success {
		t.Fatal("unauthorized envelope claims success")
	}
}

func TestSessionCookieFlow(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, ts, client, "alice")

	res, err := client.Get(ts.URL + "/api/v1/users/current-user")
	if err != nil {
		t.Fatalf("current-user: %v", err)
	}
	env := decodeEnvelope(t, res)
	if res.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("current-user status = %d, envelope = %+v", res.StatusCode, env)
	}
	var u struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(env.Data, &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("current user = %q, want alice", u.Username)
	}

	// Logout clears the cookies; the next call is anonymous again.
	res, err = client.Post(ts.URL+"/api/v1/users/logout", "application/json", nil)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	res.Body.Close()
	res, err = client.Get(ts.URL + "/api/v1/users/current-user")
	if err != nil {
		t.Fatalf("current-user after logout: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status after logout = %d, want 401", res.StatusCode)
	}
}

func TestBearerTokenAccepted(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	body, contentType := multipartBody(t, map[string]string{
		"username": "alice", "email": "alice@example.com", "fullName": "Alice", "password": "sw0rdfish",
	}, map[string]string{"avatar": "avatar.png"})
	res, err := client.Post(ts.URL+"/api/v1/users/register", contentType, body)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	res.Body.Close()

	res, err = http.Post(ts.URL+"/api/v1/users/login", "application/json",
		strings.NewReader(`{"username":"alice","password":"sw0rdfish"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	env := decodeEnvelope(t, res)
	var session struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/users/current-user", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("bearer request: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("bearer status = %d, want 200", res.StatusCode)
	}
}

func TestVideoLifecycle(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, ts, client, "alice")

	videoID := publishVideo(t, ts, client, "My clip")

	res, err := client.Get(ts.URL + "/api/v1/videos/" + videoID)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	env := decodeEnvelope(t, res)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get video status = %d, envelope = %+v", res.StatusCode, env)
	}
	var detail struct {
		Title string `json:"title"`
		Views int64  `json:"views"`
	}
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Title != "My clip" || detail.Views != 1 {
		t.Fatalf("detail = %+v, want title and one view", detail)
	}

	// Toggling the like twice lands back on not-liked.
	wantLiked := []bool{true, false}
	for i, want := range wantLiked {
		res, err := client.Post(ts.URL+"/api/v1/likes/toggle/v/"+videoID, "application/json", nil)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		env := decodeEnvelope(t, res)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("toggle %d status = %d, envelope = %+v", i, res.StatusCode, env)
		}
		var result struct {
			IsLiked bool `json:"isLiked"`
		}
		if err := json.Unmarshal(env.Data, &result); err != nil {
			t.Fatalf("decode toggle %d: %v", i, err)
		}
		if result.IsLiked != want {
			t.Fatalf("toggle %d isLiked = %v, want %v", i, result.IsLiked, want)
		}
	}

	res, err = client.Get(ts.URL + "/api/v1/videos/?query=clip")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	env = decodeEnvelope(t, res)
	var page struct {
		TotalItems int `json:"totalItems"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalItems != 1 {
		t.Fatalf("search totalItems = %d, want 1", page.TotalItems)
	}
}

func TestRefreshTokenReuseRejected(t *testing.T) {
	ts := newTestServer(t)

	client := newClient(t)
	registerAndLogin(t, ts, client, "alice")

	res, err := http.Post(ts.URL+"/api/v1/users/login", "application/json",
		strings.NewReader(`{"username":"alice","password":"sw0rdfish"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	env := decodeEnvelope(t, res)
	var session struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(env.Data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	refreshBody := fmt.Sprintf(`{"refreshToken":%q}`, session.RefreshToken)
	res, err = http.Post(ts.URL+"/api/v1/users/refresh-token", "application/json", strings.NewReader(refreshBody))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	env = decodeEnvelope(t, res)
	if res.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("first refresh status = %d, envelope = %+v", res.StatusCode, env)
	}

	res, err = http.Post(ts.URL+"/api/v1/users/refresh-token", "application/json", strings.NewReader(refreshBody))
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	env = decodeEnvelope(t, res)
	if res.StatusCode != http.StatusUnauthorized || env.Success {
		t.Fatalf("reused refresh status = %d, envelope = %+v", res.StatusCode, env)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Post(ts.URL+"/api/v1/users/login", "application/json",
		strings.NewReader(`{"username":"alice","password":"x","extra":true}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	env := decodeEnvelope(t, res)
	if res.StatusCode != http.StatusBadRequest || env.Success {
		t.Fatalf("status = %d, envelope = %+v, want 400", res.StatusCode, env)
	}
}

func TestErrorBodyCarriesErrorsArray(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	assertErrorsArray := func(res *http.Response, wantStatus int) {
		t.Helper()
		defer res.Body.Close()
		var body map[string]json.RawMessage
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if res.StatusCode != wantStatus {
			t.Fatalf("status = %d, want %d", res.StatusCode, wantStatus)
		}
		raw, ok := body["errors"]
		if !ok {
			t.Fatalf("error body missing errors field: %s", body)
		}
		var errs []string
		if err := json.Unmarshal(raw, &errs); err != nil {
			t.Fatalf("errors field is not an array: %s", raw)
		}
	}

	res, err := client.Get(ts.URL + "/api/v1/users/current-user")
	if err != nil {
		t.Fatalf("current-user: %v", err)
	}
	assertErrorsArray(res, http.StatusUnauthorized)

	res, err = client.Post(ts.URL+"/api/v1/users/login", "application/json", strings.NewReader(`{"password":"x"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	assertErrorsArray(res, http.StatusBadRequest)
}

func TestChangePasswordRequiresMatchingConfirmation(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, ts, client, "gwen")

	res, err := client.Post(ts.URL+"/api/v1/users/change-password", "application/json",
		strings.NewReader(`{"oldPassword":"sw0rdfish","newPassword":"n3wsecret"}`))
	if err != nil {
		t.Fatalf("change-password: %v", err)
	}
	env := decodeEnvelope(t, res)
	if res.StatusCode != http.StatusBadRequest || env.Success {
		t.Fatalf("missing confirmation: status = %d, envelope = %+v, want 400", res.StatusCode, env)
	}

	res, err = client.Post(ts.URL+"/api/v1/users/change-password", "application/json",
		strings.NewReader(`{"oldPassword":"sw0rdfish","newPassword":"n3wsecret","confirmPassword":"n3wsecret"}`))
	if err != nil {
		t.Fatalf("change-password: %v", err)
	}
	env = decodeEnvelope(t, res)
	if res.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("matching confirmation: status = %d, envelope = %+v, want 200", res.StatusCode, env)
	}
}
