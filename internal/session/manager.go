package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
)

const idBytes = 32

var ErrNoSessionID = errors.New("session has no id")

type Config struct {
	CookieName   string
	CookieDomain string
	TTL          time.Duration
	TrustProxy   bool
}

type Manager struct {
	store  Store
	cfg    Config
	audit  audit.Recorder
	logger *slog.Logger
	now    func() time.Time
}

// NewManager builds a manager. recorder may be nil, in which case rejected
// anonymous requests are only logged.
func NewManager(store Store, cfg Config, recorder audit.Recorder, logger *slog.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = internal.DefaultSessionCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = internal.DefaultSessionTTL
	}
	return &Manager{
		store:  store,
		cfg:    cfg,
		audit:  recorder,
		logger: logger,
		now:    time.Now,
	}
}

func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// Load resolves the request cookie. Missing, unknown and expired sessions
// all yield a fresh anonymous session; store errors do too.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return &Session{}
	}

	ctx, cancel := internal.WithTimeout(r.Context(), 0)
	defer cancel()

	s, err := m.store.Get(ctx, c.Value)
	if err != nil {
		logger.Request(r.Context(), m.logger).Error("session: load failed, treating request as anonymous", "error", err)
		return &Session{}
	}
	if s == nil || s.Expired(m.now()) {
		return &Session{}
	}
	s.ID = c.Value
	return s
}

// Start persists s under a brand new id and sets the cookie. Any id the
// session already had is discarded first.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, s *Session) error {
	if s.ID != "" {
		if err := m.deleteQuietly(ctx, s.ID); err != nil {
			return err
		}
	}

	id, err := newID()
	if err != nil {
		return err
	}
	s.ID = id
	s.ExpiresAt = m.now().Add(m.cfg.TTL)

	if err := m.Save(ctx, s); err != nil {
		return err
	}

	http.SetCookie(w, m.cookie(r, s.ID, s.ExpiresAt))
	return nil
}

func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s.ID == "" {
		return ErrNoSessionID
	}

	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Destroy ends the session. Calling it on an anonymous session is a no-op
// apart from the expiring cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request, s *Session) error {
	var err error
	if s.ID != "" {
		err = m.deleteQuietly(ctx, s.ID)
	}
	s.Clear()

	expired := m.cookie(r, "", time.Unix(0, 0))
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	return err
}

// PurgeExpired removes sessions past their expiry from the store.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	ctx, cancel := internal.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return m.store.DeleteExpired(ctx)
}

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Load(r)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// RequireLogin rejects anonymous requests with 401 and records the
// rejection under the platform agency, since no tenant is known.
func (m *Manager) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).IsAuthenticated() {
			logger.Request(r.Context(), m.logger).Info("authentication required", "method", r.Method, "path", r.URL.Path)
			if m.audit != nil {
				m.audit.Record(r.Context(), audit.Entry{
					AgencyID: audit.PlatformAgencyID,
					Action:   audit.ActionAuthRequired,
					Context:  map[string]any{"method": r.Method, "path": r.URL.Path},
					IP:       transport.ClientIP(r),
				})
			}
			status, body := internal.ErrAuthenticationRequired.ToHTTPResponse()
			transport.WriteJSON(w, status, body, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) deleteQuietly(ctx context.Context, id string) error {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *Manager) cookie(r *http.Request, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.cfg.CookieDomain,
		Expires:  expires,
		Secure:   m.secure(r),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) secure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return m.cfg.TrustProxy && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func newID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
