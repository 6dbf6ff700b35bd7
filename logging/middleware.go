package logging

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// quietPaths are polled by probes and scrapers and are not logged
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// responseWriterPool reuses wrappers so logging does not allocate per request
var responseWriterPool = sync.Pool{
	New: func() any {
		return &responseWriterWrapper{statusCode: http.StatusOK}
	},
}

// LoggingMiddleware logs HTTP requests using slog with structured logging.
// Server errors log at error level, client errors at warn level.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, quiet := quietPaths[r.URL.Path]; quiet {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			ww := responseWriterPool.Get().(*responseWriterWrapper)
			ww.ResponseWriter = w
			ww.statusCode = http.StatusOK
			ww.bytesWritten = 0
			defer func() {
				ww.ResponseWriter = nil
				responseWriterPool.Put(ww)
			}()

			next.ServeHTTP(ww, r)

			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = "unknown"
			}

			attrs := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}
			attrs = append(attrs,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"status_code", ww.statusCode,
				"bytes_written", ww.bytesWritten,
				"duration_ms", time.Since(start).Milliseconds(),
			)

			level := slog.LevelInfo
			switch {
			case ww.statusCode >= http.StatusInternalServerError:
				level = slog.LevelError
			case ww.statusCode >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "HTTP request", attrs...)
		})
	}
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code and bytes written
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	n, err := w.ResponseWriter.Write(data)
	w.bytesWritten += n
	return n, err
}
