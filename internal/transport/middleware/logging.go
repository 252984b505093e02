package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
)

// maxLoggedBody caps how much of a request or response body is kept for logs.
const maxLoggedBody = 4 << 10

const filtered = "[FILTERED]"

// sensitiveFields are matched as substrings of lower-cased header names and
// JSON keys.
var sensitiveFields = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"key",
	"session",
	"credential",
	"auth",
	"csrf",
	"cookie",
}

func isSensitive(name string) bool {
	name = strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(name, field) {
			return true
		}
	}
	return false
}

// LoggingMiddleware logs each request and its response with secrets
// filtered out of headers and bodies.
func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())

			logRequest(r.Context(), logger, r, reqID)

			ww := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			logResponse(r.Context(), logger, ww, time.Since(start), reqID)
		})
	}
}

// responseWriter keeps the status and the head of the response body.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - rw.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rw.body.Write(b[:room])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

type readCloser struct {
	io.Reader
	io.Closer
}

func logRequest(ctx context.Context, logger *slog.Logger, r *http.Request, reqID string) {
	var bodyBytes []byte
	if r.Body != nil && r.Body != http.NoBody {
		// Only the head is buffered. The rest stays on the wire for the
		// handler, which applies its own size limit.
		head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
		r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
		bodyBytes = head
	}
	if len(bodyBytes) > maxLoggedBody {
		bodyBytes = bodyBytes[:maxLoggedBody]
	}

	logger.InfoContext(ctx, "incoming request",
		"request_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"query", filterQuery(r.URL.Query()),
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"headers", filterHeaders(r.Header),
		"body", filterBody(bodyBytes),
	)
}

func logResponse(ctx context.Context, logger *slog.Logger, rw *responseWriter, duration time.Duration, reqID string) {
	statusCode := rw.statusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	logger.Log(ctx, level, "response",
		"request_id", reqID,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"response_size", rw.size,
		"body", filterBody(rw.body.Bytes()),
	)
}

func filterHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func filterQuery(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for name, v := range values {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(v, ",")
	}
	return out
}

// filterBody masks sensitive JSON keys. Non-JSON bodies (forms) are dropped
// entirely when they mention a sensitive field.
func filterBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		if isSensitive(string(body)) {
			return "[FILTERED - Contains sensitive data]"
		}
		return string(body)
	}

	out, err := json.Marshal(filterJSON(data))
	if err != nil {
		return "[ERROR - Failed to marshal filtered JSON]"
	}
	return string(out)
}

func filterJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = filtered
				continue
			}
			out[key] = filterJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = filterJSON(item)
		}
		return out
	default:
		return v
	}
}
