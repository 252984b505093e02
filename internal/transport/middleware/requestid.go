package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
)

// RequestID reuses an inbound X-Trace-ID or mints one, then attaches it to
// the request logger and to chi's request id slot.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" || len(traceID) > 128 {
			traceID = uuid.NewString()
		}

		ctx := logger.WithTraceID(r.Context(), traceID)
		ctx = context.WithValue(ctx, middleware.RequestIDKey, traceID)

		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
