package restapi

import (
	"fmt"
	"net/http"
)

const noStore = "no-cache, no-store, must-revalidate"

func cacheControlValue(seconds int) string {
	if seconds <= 0 {
		return noStore
	}
	return fmt.Sprintf("public, max-age=%d", seconds)
}

// CacheControlMiddleware sets Cache-Control on successful responses to a
// max-age of durationSeconds. Errors and non-positive durations are never
// cached.
func CacheControlMiddleware(durationSeconds int, next http.Handler) http.Handler {
	value := cacheControlValue(durationSeconds)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cacheControlWriter{ResponseWriter: w, value: value}, r)
	})
}

type cacheControlWriter struct {
	http.ResponseWriter
	value       string
	wroteHeader bool
}

func (w *cacheControlWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if code >= 200 && code < 300 {
			w.Header().Set("Cache-Control", w.value)
		} else {
			w.Header().Set("Cache-Control", noStore)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
