package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListVisible(ctx context.Context, sess *session.Session) ([]*Client, error)
	Get(ctx context.Context, agencyID, clientID int64) (*Client, error)
	Grant(ctx context.Context, agencyID, clientID, userID int64) error
	Revoke(ctx context.Context, agencyID, clientID, userID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Audit   audit.Recorder
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, recorder audit.Recorder) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Audit:       recorder,
	}
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.ListVisible(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, internal.NewInternalError("Failed to load clients.", err))
		return
	}

	resp := ClientsResponse{OK: true, Clients: make([]ClientResponse, 0, len(clients))}
	for _, c := range clients {
		resp.Clients = append(resp.Clients, c.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetClient expects access.Controller.RequireClientAccess to have run.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	clientID, ok := h.idParam(w, r, "clientID")
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), sess.AgencyID, clientID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ClientDetailResponse{OK: true, Client: c.ToResponse()})
}

func (h *Handler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	clientID, ok := h.idParam(w, r, "clientID")
	if !ok {
		return
	}

	var dto GrantDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if appErr := dto.Validate(); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.Grant(r.Context(), sess.AgencyID, clientID, dto.UserID); err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.recordGrant(r, sess, audit.ActionClientGranted, clientID, dto.UserID)
	h.WriteJSON(w, http.StatusOK, GrantResponse{OK: true, ClientID: clientID, UserID: dto.UserID})
}

func (h *Handler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	clientID, ok := h.idParam(w, r, "clientID")
	if !ok {
		return
	}
	userID, ok := h.idParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.Service.Revoke(r.Context(), sess.AgencyID, clientID, userID); err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.recordGrant(r, sess, audit.ActionClientRevoked, clientID, userID)
	h.WriteJSON(w, http.StatusOK, GrantResponse{OK: true, ClientID: clientID, UserID: userID})
}

func (h *Handler) recordGrant(r *http.Request, sess *session.Session, action string, clientID, userID int64) {
	h.Audit.Record(r.Context(), audit.Entry{
		AgencyID: sess.AgencyID,
		UserID:   audit.UserID(sess.UserID),
		Action:   action,
		Context:  map[string]any{"client_id": clientID, "target_user_id": userID},
		IP:       transport.ClientIP(r),
	})
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.WriteAppError(w, internal.NewValidationFieldError(name, "invalid "+name, internal.ErrCodeValidationFailed))
		return 0, false
	}
	return id, true
}
