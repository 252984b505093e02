package access

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/metrics"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	"github.com/go-chi/chi"
)

func (c *Controller) RequireCapability(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := RequireCapability(session.FromContext(r.Context()), capability); err != nil {
				c.Deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c *Controller) DenyClientUsers() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := DenyClientUsers(session.FromContext(r.Context())); err != nil {
				c.Deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireClientAccess checks the client id found in the named URL param.
func (c *Controller) RequireClientAccess(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err != nil || clientID <= 0 {
				status, body := internal.NewValidationFieldError(param, "invalid client id", internal.ErrCodeValidationFailed).ToHTTPResponse()
				transport.WriteJSON(w, status, body, c.logger)
				return
			}

			if err := c.AuthorizeClient(r.Context(), session.FromContext(r.Context()), clientID); err != nil {
				c.Deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Deny writes the 403 response and the access.denied audit entry.
func (c *Controller) Deny(w http.ResponseWriter, r *http.Request, err error) {
	s := session.FromContext(r.Context())

	fields := map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	reason := "denied"
	var denied *DeniedError
	if errors.As(err, &denied) {
		reason = denied.Reason
		if denied.Capability != "" {
			fields["capability"] = string(denied.Capability)
		}
		if denied.ClientID != 0 {
			fields["client_id"] = denied.ClientID
		}
	}
	fields["reason"] = reason

	metrics.AccessDenied.WithLabelValues(reason).Inc()
	logger.Request(r.Context(), c.logger).Warn("access denied",
		"reason", reason,
		"agency_id", s.AgencyID,
		"user_id", s.UserID,
		"role", s.Role,
		"path", r.URL.Path,
	)

	c.audit.Record(r.Context(), audit.Entry{
		AgencyID: s.AgencyID,
		UserID:   audit.UserID(s.UserID),
		Action:   audit.ActionAccessDenied,
		Context:  fields,
		IP:       transport.ClientIP(r),
	})

	status, body := internal.ErrAccessDenied.ToHTTPResponse()
	transport.WriteJSON(w, status, body, c.logger)
}
