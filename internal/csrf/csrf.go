// Package csrf implements synchronizer tokens bound to the session.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/metrics"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
)

const (
	HeaderName = "X-CSRF-Token"
	FormField  = "csrf_token"

	tokenBytes = 32
)

var (
	ErrTokenMissing   = errors.New("csrf token missing from request")
	ErrNoSessionToken = errors.New("session has no csrf token")
	ErrTokenMismatch  = errors.New("csrf token mismatch")
)

// SessionSaver persists a session after its token changes.
type SessionSaver interface {
	Save(ctx context.Context, s *session.Session) error
}

type Guard struct {
	sessions SessionSaver
	audit    audit.Recorder
	logger   *slog.Logger
}

func NewGuard(sessions SessionSaver, recorder audit.Recorder, logger *slog.Logger) *Guard {
	return &Guard{
		sessions: sessions,
		audit:    recorder,
		logger:   logger,
	}
}

// IssueToken returns the session token, creating one on first use. The
// token is persisted only for sessions that already have an id.
func (g *Guard) IssueToken(ctx context.Context, s *session.Session) (string, error) {
	if s.CSRFToken != "" {
		return s.CSRFToken, nil
	}

	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	s.CSRFToken = hex.EncodeToString(b)

	if s.ID != "" {
		if err := g.sessions.Save(ctx, s); err != nil {
			return "", err
		}
	}
	return s.CSRFToken, nil
}

// Validate compares in constant time. A session without a token never
// validates, whatever was submitted.
func (g *Guard) Validate(s *session.Session, submitted string) error {
	if s == nil || s.CSRFToken == "" {
		return ErrNoSessionToken
	}
	if submitted == "" {
		return ErrTokenMissing
	}
	if subtle.ConstantTimeCompare([]byte(s.CSRFToken), []byte(submitted)) != 1 {
		return ErrTokenMismatch
	}
	return nil
}

// Middleware guards POST, PUT, PATCH and DELETE. Rejected requests never
// reach the handler.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !stateChanging(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		s := session.FromContext(r.Context())
		if err := g.Validate(s, submittedToken(r)); err != nil {
			g.reject(w, r, s, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthenticatedMiddleware is Middleware for routes that are harmless for
// anonymous sessions, such as logout: only signed-in sessions must present
// a token.
func (g *Guard) AuthenticatedMiddleware(next http.Handler) http.Handler {
	checked := g.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).IsAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}
		checked.ServeHTTP(w, r)
	})
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, s *session.Session, err error) {
	kind := failureKind(err)
	metrics.CSRFFailures.WithLabelValues(kind).Inc()

	logger.Request(r.Context(), g.logger).Warn("csrf validation failed",
		"reason", kind,
		"method", r.Method,
		"path", r.URL.Path,
		"agency_id", s.AgencyID,
		"user_id", s.UserID,
	)

	g.audit.Record(r.Context(), audit.Entry{
		AgencyID: s.AgencyID,
		UserID:   audit.UserID(s.UserID),
		Action:   audit.ActionCSRFFailed,
		Context: map[string]any{
			"reason": kind,
			"method": r.Method,
			"path":   r.URL.Path,
		},
		IP: transport.ClientIP(r),
	})

	status, body := internal.ErrCSRFFailed.ToHTTPResponse()
	transport.WriteJSON(w, status, body, g.logger)
}

func submittedToken(r *http.Request) string {
	if v := r.Header.Get(HeaderName); v != "" {
		return v
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(nil, r.Body, transport.MaxBodyBytes)
		return r.PostFormValue(FormField)
	}
	return ""
}

func stateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return "missing"
	case errors.Is(err, ErrNoSessionToken):
		return "no_session_token"
	default:
		return "mismatch"
	}
}
