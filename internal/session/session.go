// Package session holds the per-browser identity snapshot and its
// cookie-backed lifecycle.
package session

import (
	"context"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
)

// DefaultPrimaryColor is the branding fallback for agencies without one.
const DefaultPrimaryColor = "#0d6efd"

// Session is either anonymous (zero identity fields) or fully populated by
// a successful login. It is passed explicitly through request context.
type Session struct {
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"-"`

	UserID             int64             `json:"user_id,omitempty"`
	AgencyID           int64             `json:"agency_id,omitempty"`
	Role               identity.Role     `json:"role,omitempty"`
	UserType           identity.UserType `json:"user_type,omitempty"`
	ClientID           *int64            `json:"client_id,omitempty"`
	Name               string            `json:"name,omitempty"`
	Email              string            `json:"email,omitempty"`
	AgencySlug         string            `json:"agency_slug,omitempty"`
	AgencyLogoURL      string            `json:"agency_logo_url,omitempty"`
	AgencyPrimaryColor string            `json:"agency_primary_color,omitempty"`
	CSRFToken          string            `json:"csrf_token,omitempty"`
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != 0 && s.AgencyID != 0 && s.Role.Valid()
}

func (s *Session) IsClientUser() bool {
	return s != nil && s.UserType.IsClient()
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clear drops every identity field and the CSRF token.
func (s *Session) Clear() {
	*s = Session{}
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request session, or an anonymous one when the
// session middleware did not run.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}

// Store persists sessions by id. Get returns nil, nil for unknown or
// expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
