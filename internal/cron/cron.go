// Package cron authorizes non-interactive callers such as schedulers and
// exposes the maintenance endpoints they drive.
package cron

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/metrics"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

const (
	HeaderName = "X-Cron-Key"
	Subject    = "cron"
	Issuer     = "agency-dashboard"
)

var (
	ErrMissingCredentials = errors.New("cron: no credentials presented")
	ErrInvalidKey         = errors.New("cron: invalid key")
	ErrInvalidToken       = errors.New("cron: invalid token")
)

type Guard struct {
	secret []byte
	audit  audit.Recorder
	logger *slog.Logger
	now    func() time.Time
}

func NewGuard(secret string, recorder audit.Recorder, logger *slog.Logger) *Guard {
	return &Guard{
		secret: []byte(secret),
		audit:  recorder,
		logger: logger,
		now:    time.Now,
	}
}

// Authorize accepts either the shared key header or a bearer JWT signed
// with the same key.
func (g *Guard) Authorize(r *http.Request) error {
	if len(g.secret) == 0 {
		return ErrInvalidKey
	}

	if key := r.Header.Get(HeaderName); key != "" {
		if subtle.ConstantTimeCompare([]byte(key), g.secret) != 1 {
			return ErrInvalidKey
		}
		return nil
	}

	if token := transport.ExtractTokenFromHeader(r); token != "" {
		return g.verifyToken(token)
	}

	return ErrMissingCredentials
}

func (g *Guard) verifyToken(raw string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(Subject),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

// IssueToken mints a bearer token valid for ttl.
func (g *Guard) IssueToken(ttl time.Duration) (string, error) {
	if len(g.secret) == 0 {
		return "", ErrInvalidKey
	}
	now := g.now()
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Authorize(r); err != nil {
			metrics.CronAuthFailures.Inc()
			logger.Request(r.Context(), g.logger).Warn("cron authorization failed", "path", r.URL.Path, "error", err)
			g.audit.Record(r.Context(), audit.Entry{
				AgencyID: audit.PlatformAgencyID,
				Action:   audit.ActionCronAuthFailed,
				Context:  map[string]any{"path": r.URL.Path, "reason": err.Error()},
				IP:       transport.ClientIP(r),
			})
			status, body := internal.ErrCronUnauthorized.ToHTTPResponse()
			transport.WriteJSON(w, status, body, g.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionPurger removes expired sessions.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Sessions SessionPurger
}

func NewHandler(baseHandler *transport.BaseHandler, sessions SessionPurger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Sessions:    sessions,
	}
}

type PurgeResponse struct {
	OK      bool  `json:"ok"`
	Deleted int64 `json:"deleted"`
}

func (h *Handler) PurgeSessions(w http.ResponseWriter, r *http.Request) {
	n, err := h.Sessions.PurgeExpired(r.Context())
	if err != nil {
		h.WriteAppError(w, internal.NewInternalError("Session purge failed.", err))
		return
	}
	h.Logger.Info("purged expired sessions", "deleted", n)
	h.WriteJSON(w, http.StatusOK, PurgeResponse{OK: true, Deleted: n})
}
