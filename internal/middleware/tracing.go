package middleware

import (
	"net/http"
	"time"

	"github.com/ledgerworks/erp/internal/logging"
)

// TracingMiddleware assigns each request a trace ID and writes the access
// log line.
type TracingMiddleware struct {
	log *logging.Logger
}

// NewTracingMiddleware builds the tracing middleware.
func NewTracingMiddleware(log *logging.Logger) *TracingMiddleware {
	if log == nil {
		log = logging.NewDefault("http")
	}
	return &TracingMiddleware{log: log}
}

// Handler returns the middleware handler.
func (m *TracingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = logging.NewTraceID()
		}

		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-ID", traceID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rw, r.WithContext(ctx))

		m.log.LogRequest(ctx, r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
