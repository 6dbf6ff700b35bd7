package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/protocolos-api/config"
	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/metrics"
	"github.com/juju/ratelimit"
)

// RequestSizeMiddleware limits the size of request headers and body
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > cfg.MaxRequestBody {
				logging.Warn("Request body too large",
					"content_length", r.ContentLength,
					"max_allowed", cfg.MaxRequestBody,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())

				respondWithError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", cfg.MaxRequestBody))
				return
			}

			// Check header size (rough estimate)
			headerSize := int64(0)
			for key, values := range r.Header {
				headerSize += int64(len(key))
				for _, value := range values {
					headerSize += int64(len(value))
				}
			}

			if headerSize > cfg.MaxHeaderSize {
				logging.Warn("Request headers too large",
					"header_size", headerSize,
					"max_allowed", cfg.MaxHeaderSize,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())

				respondWithError(w, http.StatusRequestHeaderFieldsTooLarge,
					fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", cfg.MaxHeaderSize))
				return
			}

			// Chunked bodies carry no Content-Length, cap what the handler can read
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBody)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Token bucket parameters shared by every client
const (
	bucketRate     = 3
	bucketCapacity = 1000
)

// RateLimiter manages per-client rate limiting
type RateLimiter struct {
	clients map[string]*ratelimit.Bucket
	mu      sync.RWMutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*ratelimit.Bucket),
	}
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithRate(bucketRate, bucketCapacity)
			rl.clients[clientIP] = bucket
			metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
		}
		rl.mu.Unlock()
	}

	return bucket
}

// prune removes clients whose bucket refilled completely
func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
}

// StartCleanup prunes idle clients every interval until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.prune()
			}
		}
	}()
}

// getTokenCost weighs a request by the work it triggers
func getTokenCost(r *http.Request) int64 {
	path := r.URL.Path

	switch path {
	case "/metrics":
		return 0
	case "/health", "/v1/patient/bsa":
		return 5
	case "/v1/protocols":
		if r.URL.Query().Get("q") != "" {
			return 10
		}
		return 20
	case "/v1/cids":
		return 10
	case "/v1/prescriptions", "/v1/schedule":
		return 50
	}

	if strings.HasPrefix(path, "/v1/protocols/") {
		return 10
	}

	return 5
}

// clientIP strips the port from RemoteAddr, already rewritten by RealIP
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware implements rate limiting using token bucket
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := rl.getBucket(clientIP(r))

		tokenCost := getTokenCost(r)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(bucketCapacity))
		w.Header().Set("X-RateLimit-Rate", strconv.Itoa(bucketRate))

		if bucket.TakeAvailable(tokenCost) < tokenCost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))

		next.ServeHTTP(w, r)
	})
}

// respondWithError writes the same error body as the handlers
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	payload := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("Failed to encode JSON response", "error", err)
	}
}
