package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClientGenerateText(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/models/gemini-test:generateContent" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "secret" {
			t.Errorf("missing api key header")
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("unexpected request: %#v", req)
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  - insight one\n"},{"text":"- insight two"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("secret", time.Second, 3, time.Millisecond, time.Millisecond, srv.URL)
	text, err := c.GenerateText(context.Background(), "gemini-test", "hello")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "- insight one\n- insight two" {
		t.Fatalf("unexpected text: %q", text)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected one request, got %d", hits)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("secret", time.Second, 3, time.Millisecond, 2*time.Millisecond, srv.URL)
	text, err := c.GenerateText(context.Background(), "m", "p")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "ok" || atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("unexpected result: %q after %d hits", text, atomic.LoadInt32(&hits))
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("secret", time.Second, 3, time.Millisecond, time.Millisecond, srv.URL)
	_, err := c.GenerateText(context.Background(), "m", "p")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Status != "INVALID_ARGUMENT" || apiErr.Message != "API key not valid" {
		t.Fatalf("unexpected api error: %#v", apiErr)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected a single request, got %d", hits)
	}
}

func TestClientEmptyCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("secret", time.Second, 1, time.Millisecond, time.Millisecond, srv.URL)
	if _, err := c.GenerateText(context.Background(), "m", "p"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestClientMissingKey(t *testing.T) {
	c := NewClient("", 0, 0, 0, 0)
	if _, err := c.GenerateText(context.Background(), "m", "p"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	if secs, err := parseRetryAfterSeconds("3"); err != nil || secs != 3 {
		t.Fatalf("unexpected: %d %v", secs, err)
	}
	if _, err := parseRetryAfterSeconds(""); err == nil {
		t.Fatal("expected error for empty header")
	}
}
