package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/protocolos-api/config"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		expectedCost int64
	}{
		{"metrics", "/metrics", 0},
		{"health", "/health", 5},
		{"bsa", "/v1/patient/bsa?weight=70&height=170", 5},
		{"protocol list", "/v1/protocols", 20},
		{"protocol suggestion", "/v1/protocols?q=ac", 10},
		{"protocol detail", "/v1/protocols/AC", 10},
		{"cids", "/v1/cids?q=C50", 10},
		{"prescription", "/v1/prescriptions", 50},
		{"schedule", "/v1/schedule", 50},
		{"unknown", "/unknown", 5},
		{"root", "/", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if cost := getTokenCost(req); cost != tt.expectedCost {
				t.Errorf("getTokenCost(%s) = %d, want %d", tt.target, cost, tt.expectedCost)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		expected   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.9", "203.0.113.9"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := clientIP(req); got != tt.expected {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.expected)
		}
	}
}

func TestRateLimiterSharesBucketAcrossPorts(t *testing.T) {
	rl := NewRateLimiter()
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"192.0.2.1:1000", "192.0.2.1:2000"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/schedule", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(rl.clients) != 1 {
		t.Errorf("Expected one bucket per IP, got %d", len(rl.clients))
	}
	if available := rl.getBucket("192.0.2.1").Available(); available > bucketCapacity-100 {
		t.Errorf("Expected both requests charged to the same bucket, %d tokens left", available)
	}
}

func TestRateLimiterPrune(t *testing.T) {
	rl := NewRateLimiter()

	rl.getBucket("192.0.2.1")
	used := rl.getBucket("192.0.2.2")
	used.TakeAvailable(500)

	rl.prune()

	if _, ok := rl.clients["192.0.2.1"]; ok {
		t.Error("Idle client with a full bucket should be pruned")
	}
	if _, ok := rl.clients["192.0.2.2"]; !ok {
		t.Error("Active client should be kept")
	}
}

func TestRateLimiterCleanupStops(t *testing.T) {
	rl := NewRateLimiter()
	rl.getBucket("192.0.2.1")

	ctx, cancel := context.WithCancel(context.Background())
	rl.StartCleanup(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for {
		rl.mu.RLock()
		remaining := len(rl.clients)
		rl.mu.RUnlock()
		if remaining == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Cleanup did not prune the idle client")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
}

func sizeLimitedHandler(cfg *config.Config) http.Handler {
	return RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRequestSizeMiddleware(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 1024, MaxHeaderSize: 1024}

	tests := []struct {
		name          string
		body          string
		contentLength int64
		header        string
		expectedCode  int
	}{
		{"no body", "", 0, "", http.StatusOK},
		{"small body", "hello", 5, "", http.StatusOK},
		{"exactly max size", strings.Repeat("x", 1024), 1024, "", http.StatusOK},
		{"declared too large", strings.Repeat("x", 2000), 2000, "", http.StatusRequestEntityTooLarge},
		{"chunked too large", strings.Repeat("x", 2000), -1, "", http.StatusRequestEntityTooLarge},
		{"headers too large", "", 0, strings.Repeat("h", 2000), http.StatusRequestHeaderFieldsTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = http.NoBody
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/schedule", body)
			req.ContentLength = tt.contentLength
			if tt.header != "" {
				req.Header.Set("X-Large", tt.header)
			}

			rr := httptest.NewRecorder()
			sizeLimitedHandler(cfg).ServeHTTP(rr, req)

			if rr.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d", tt.expectedCode, rr.Code)
			}
		})
	}
}

func TestRespondWithError(t *testing.T) {
	rr := httptest.NewRecorder()
	respondWithError(rr, http.StatusTooManyRequests, "slow down")

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", rr.Code)
	}
	expected := `{"code":429,"error":"Too Many Requests","message":"slow down"}` + "\n"
	if rr.Body.String() != expected {
		t.Errorf("Expected %s, got %s", expected, rr.Body.String())
	}
}
