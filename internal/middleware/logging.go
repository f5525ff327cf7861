package middleware

import (
	"net/http"
	"strings"
	"time"

	"tunevault/internal/logging"
)

// responseWriter captures the status code for logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logging logs each request with method, path, status, size, and duration.
// Health endpoints are skipped when logHealthChecks is false so liveness
// probes do not flood the log.
func Logging(logHealthChecks bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			if !logHealthChecks && isHealthPath(r.URL.Path) {
				return
			}

			logging.Info("%s %s %d %dB %v %s",
				r.Method, sanitizeLogField(r.URL.Path), rw.status, rw.bytes,
				time.Since(start).Truncate(time.Microsecond), remoteAddr(r))
		})
	}
}

func isHealthPath(path string) bool {
	switch path {
	case "/health", "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}

// sanitizeLogField strips control characters so request data cannot forge
// log lines.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

func remoteAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return sanitizeLogField(strings.TrimSpace(fwd))
	}
	return r.RemoteAddr
}
