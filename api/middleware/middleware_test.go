package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSessionUsesHeader(t *testing.T) {
	var got string
	handler := Session("guest", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(SessionHeader, " browser-42 ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "browser-42" {
		t.Fatalf("expected browser-42 got %q", got)
	}
}

func TestSessionFallsBackToGuest(t *testing.T) {
	var got string
	handler := Session("guest", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionIDFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "guest" {
		t.Fatalf("expected guest got %q", got)
	}
}

func TestSessionRejectsUnsafeIDs(t *testing.T) {
	called := false
	handler := Session("guest", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, id := range []string{"a:b", "../etc", strings.Repeat("x", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionHeader, id)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400 got %d", id, resp.Code)
		}
	}
	if called {
		t.Fatalf("handler should not run for invalid session ids")
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-1")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Header().Get(requestIDHeader) != "req-1" {
		t.Fatalf("expected echoed request id got %q", resp.Header().Get(requestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id\nwith newline")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if got := resp.Header().Get(requestIDHeader); got == "" || got == "bad id\nwith newline" {
		t.Fatalf("expected unsafe request id replaced, got %q", got)
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _ = rec.Write([]byte("hello"))
	if rec.status != http.StatusOK || rec.bytes != 5 {
		t.Fatalf("unexpected recorder state status=%d bytes=%d", rec.status, rec.bytes)
	}
}

func TestCORSAllowsSessionHeader(t *testing.T) {
	handler := CORS([]string{"https://shop.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", SessionHeader)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Header().Get("Access-Control-Allow-Origin") != "https://shop.example" {
		t.Fatalf("expected origin allowed, headers=%v", resp.Header())
	}
	if !strings.Contains(strings.ToLower(resp.Header().Get("Access-Control-Allow-Headers")), strings.ToLower(SessionHeader)) {
		t.Fatalf("expected session header allowed, got %q", resp.Header().Get("Access-Control-Allow-Headers"))
	}
}
