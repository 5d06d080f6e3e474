package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/logging"
)

const traceHeader = "X-Trace-ID"

// LoggerMiddleware tags each request with a trace id, stores a request
// scoped logger in its context and logs start and completion.
func LoggerMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(traceHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}
			w.Header().Set(traceHeader, traceID)

			// handlers get the trace id only; request fields stay on the access log
			coreLogger := logger.With("trace_id", traceID)
			httpLogger := coreLogger.With(
				"http_method", r.Method,
				"http_path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			ctx := logging.WithLogger(r.Context(), coreLogger)
			ctx = logging.WithTraceID(ctx, traceID)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			httpLogger.DebugContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))

			httpLogger.InfoContext(ctx, "request finished",
				"status_code", ww.Status(),
				"bytes_written", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
