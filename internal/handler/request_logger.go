package handler

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/metrics"
)

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.statusCode = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.wroteHeader = true
	return sr.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController (Go 1.20+).
func (sr *statusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }

// Flush implements http.Flusher for http.ServeContent and streaming handlers.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger is middleware that logs each HTTP request and recovers
// panics. Handlers find a request-scoped logger (with request_id) through
// logging.FromContext.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			log := logger.With("request_id", reqID)
			r = r.WithContext(logging.WithLogger(r.Context(), log))
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"panic_stack", string(debug.Stack()),
					)
					if !sr.wroteHeader {
						writeError(sr, http.StatusInternalServerError, "internal_error", "")
					}
				}
				log.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", sr.statusCode,
					"duration_ms", time.Since(start).Milliseconds(),
					"remote_addr", r.RemoteAddr,
				)
			}()

			next.ServeHTTP(sr, r)
		})
	}
}

// Metrics is middleware reporting request counts and latency per route. It
// must wrap the ServeMux directly so the matched pattern is visible on r.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				code := sr.statusCode
				p := recover()
				if p != nil && !sr.wroteHeader {
					// RequestLogger answers 500 once the panic reaches it.
					code = http.StatusInternalServerError
				}
				m.ObserveRequest(r.Pattern, r.Method, code, time.Since(start))
				if p != nil {
					panic(p)
				}
			}()
			next.ServeHTTP(sr, r)
		})
	}
}
