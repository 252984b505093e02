package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	"github.com/go-viper/mapstructure/v2"
)

// MaxBodyBytes caps every request body the handlers and guards parse.
const MaxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// Log returns the handler logger tagged with the request trace id.
func (h *BaseHandler) Log(r *http.Request) *slog.Logger {
	return logger.Request(r.Context(), h.Logger)
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, data, h.Logger)
}

// WriteAppError maps err onto its HTTP status. Anything that is not an
// AppError becomes a generic 500 so internals never leak to callers.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		if status >= http.StatusInternalServerError {
			h.Logger.Error("request failed", "code", appErr.Code, "error", appErr.Error())
		}
		WriteJSON(w, status, body, h.Logger)
		return
	}
	h.Logger.Error("unhandled error", "error", err)
	WriteJSON(w, http.StatusInternalServerError, internal.Response{OK: false, Error: "Internal server error."}, h.Logger)
}

// DecodeBody reads a JSON body, or a form body when the request was posted
// from an HTML form. Form fields are matched to the target's json tags and
// converted to the field types, so "42" fills an int64.
func (h *BaseHandler) DecodeBody(r *http.Request, dst interface{}) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = body
		if err := parseForm(r, mediaType); err != nil {
			return internal.NewValidationError("Malformed form body.", internal.ErrCodeValidationFailed).WithCause(err)
		}
		if err := decodeForm(r, dst); err != nil {
			return internal.NewValidationError("Malformed form body.", internal.ErrCodeValidationFailed).WithCause(err)
		}
		return nil
	}

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return internal.NewValidationError("Request body is required.", internal.ErrCodeValidationFailed)
		}
		return internal.NewValidationError("Malformed JSON body.", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

func parseForm(r *http.Request, mediaType string) error {
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(MaxBodyBytes)
	}
	return r.ParseForm()
}

func decodeForm(r *http.Request, dst interface{}) error {
	flat := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		flat[k] = r.PostForm.Get(k)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(flat)
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}

	return strings.TrimSpace(authHeader[7:])
}

// ClientIP returns the caller address without the port. Proxy headers are
// honoured only when the router installed chi's RealIP middleware.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WriteJSON is used by middleware that has no BaseHandler at hand.
func WriteJSON(w http.ResponseWriter, status int, data interface{}, lg *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && lg != nil {
		lg.Error("failed to encode JSON response", "error", err)
	}
}
