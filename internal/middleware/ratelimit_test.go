package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func rateLimitedHandler(rps, burst int) http.Handler {
	return NewRateLimiter(rps, burst, nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func hit(t *testing.T, handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterKeysOnClientIP(t *testing.T) {
	handler := rateLimitedHandler(1, 2)

	for i := 0; i < 2; i++ {
		if rec := hit(t, handler, "10.0.0.1:50000"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d from 10.0.0.1: status = %d, want 204", i+1, rec.Code)
		}
	}
	if rec := hit(t, handler, "10.0.0.1:50001"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("burst exhausted for 10.0.0.1 but status = %d, want 429", rec.Code)
	}

	// A different address gets its own budget.
	if rec := hit(t, handler, "10.0.0.2:50000"); rec.Code != http.StatusNoContent {
		t.Fatalf("request from 10.0.0.2: status = %d, want 204", rec.Code)
	}
}

func TestRateLimiterRejectionBody(t *testing.T) {
	handler := rateLimitedHandler(1, 1)

	hit(t, handler, "10.0.0.3:50000")
	rec := hit(t, handler, "10.0.0.3:50000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	var body struct {
		StatusCode int      `json:"statusCode"`
		Message    string   `json:"message"`
		Success    bool     `json:"success"`
		Errors     []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.StatusCode != http.StatusTooManyRequests || body.Success {
		t.Fatalf("body = %+v", body)
	}
	if body.Errors == nil {
		t.Fatalf("body missing errors array: %s", rec.Body.String())
	}
}
