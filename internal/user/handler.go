package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
)

type ServiceAPI interface {
	Profile(ctx context.Context, agencyID, userID int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.IsAuthenticated() {
		h.WriteAppError(w, internal.ErrAuthenticationRequired)
		return
	}

	u, err := h.Service.Profile(r.Context(), sess.AgencyID, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteAppError(w, internal.ErrUserNotFound)
			return
		}
		h.Logger.Error("GetCurrentUser: profile lookup failed", "user_id", sess.UserID, "error", err)
		h.WriteAppError(w, internal.NewInternalError("Failed to load profile.", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, ProfileResponse{OK: true, User: u})
}
