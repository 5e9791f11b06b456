package middleware

import (
	"log/slog"
	"net/http"
)

// MaxBodyBytes caps uploads. Audio files for transcription are the largest
// legitimate payload.
const MaxBodyBytes = 64 << 20 // 64 MiB

// NewBodyLimitMiddleware rejects oversized request bodies before a handler
// buffers them.
func NewBodyLimitMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > MaxBodyBytes {
				logger.Warn("Request body too large",
					"path", r.URL.Path,
					"content_length", r.ContentLength,
				)
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
			next.ServeHTTP(w, r)
		})
	}
}
