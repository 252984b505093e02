package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/metrics"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
)

type ServiceAPI interface {
	LoginAttempt(ctx context.Context, dto LoginDTO) (*session.Session, error)
}

type SessionManager interface {
	Start(ctx context.Context, w http.ResponseWriter, r *http.Request, s *session.Session) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request, s *session.Session) error
}

type TokenIssuer interface {
	IssueToken(ctx context.Context, s *session.Session) (string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Sessions SessionManager
	CSRF     TokenIssuer
	Audit    audit.Recorder
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, sessions SessionManager, csrf TokenIssuer, recorder audit.Recorder) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
		Sessions:    sessions,
		CSRF:        csrf,
		Audit:       recorder,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	sess, err := h.Service.LoginAttempt(r.Context(), dto)
	if err != nil {
		var loginErr *LoginError
		if errors.As(err, &loginErr) {
			h.loginFailed(w, r, dto, loginErr)
			return
		}
		h.Log(r).Error("login: infrastructure failure", "error", err)
		h.WriteAppError(w, internal.NewInternalError("Login is temporarily unavailable.", err))
		return
	}

	// Reusing the previous id makes Start delete it before minting a new one.
	sess.ID = session.FromContext(r.Context()).ID
	if err := h.Sessions.Start(r.Context(), w, r, sess); err != nil {
		h.Log(r).Error("login: failed to start session", "user_id", sess.UserID, "error", err)
		h.WriteAppError(w, internal.NewInternalError("Login is temporarily unavailable.", err))
		return
	}

	token, err := h.CSRF.IssueToken(r.Context(), sess)
	if err != nil {
		h.Log(r).Error("login: failed to issue csrf token", "user_id", sess.UserID, "error", err)
		h.WriteAppError(w, internal.NewInternalError("Login is temporarily unavailable.", err))
		return
	}

	metrics.LoginAttempts.WithLabelValues("success", "").Inc()
	h.Audit.Record(r.Context(), audit.Entry{
		AgencyID: sess.AgencyID,
		UserID:   audit.UserID(sess.UserID),
		Action:   audit.ActionLoginSuccess,
		Context:  map[string]any{"email": sess.Email, "user_type": string(sess.UserType)},
		IP:       transport.ClientIP(r),
	})
	h.Log(r).Info("login succeeded", "agency_id", sess.AgencyID, "user_id", sess.UserID)

	h.WriteJSON(w, http.StatusOK, toSessionResponse(sess, token))
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, dto LoginDTO, loginErr *LoginError) {
	reason := loginErr.ReasonCode()
	metrics.LoginAttempts.WithLabelValues("failed", reason).Inc()

	h.Log(r).Warn("login failed",
		"reason", reason,
		"agency_slug", dto.AgencySlug,
		"agency_id", loginErr.AgencyID,
		"user_id", loginErr.UserID,
	)
	h.Audit.Record(r.Context(), audit.Entry{
		AgencyID: loginErr.AgencyID,
		UserID:   audit.UserID(loginErr.UserID),
		Action:   audit.ActionLoginFailed,
		Context: map[string]any{
			"reason":      reason,
			"email":       dto.Email,
			"agency_slug": dto.AgencySlug,
		},
		IP: transport.ClientIP(r),
	})

	h.WriteAppError(w, internal.ErrInvalidLogin)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	agencyID, userID := sess.AgencyID, sess.UserID
	wasAuthenticated := sess.IsAuthenticated()

	if err := h.Sessions.Destroy(r.Context(), w, r, sess); err != nil {
		// The cookie is already expired and the in-memory session cleared.
		h.Log(r).Error("logout: failed to delete stored session", "user_id", userID, "error", err)
	}

	if wasAuthenticated {
		h.Audit.Record(r.Context(), audit.Entry{
			AgencyID: agencyID,
			UserID:   audit.UserID(userID),
			Action:   audit.ActionLogout,
			IP:       transport.ClientIP(r),
		})
	}

	h.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Session returns the identity snapshot and the CSRF token the client must
// echo on state-changing requests.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	token, err := h.CSRF.IssueToken(r.Context(), sess)
	if err != nil {
		h.WriteAppError(w, internal.NewInternalError("Session is temporarily unavailable.", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, toSessionResponse(sess, token))
}

func toSessionResponse(s *session.Session, token string) SessionResponse {
	return SessionResponse{
		OK: true,
		User: UserResponse{
			ID:       s.UserID,
			Name:     s.Name,
			Email:    s.Email,
			Role:     string(s.Role),
			UserType: string(s.UserType),
			ClientID: s.ClientID,
		},
		Agency: AgencyResponse{
			ID:           s.AgencyID,
			Slug:         s.AgencySlug,
			LogoURL:      s.AgencyLogoURL,
			PrimaryColor: s.AgencyPrimaryColor,
		},
		CSRFToken: token,
	}
}
