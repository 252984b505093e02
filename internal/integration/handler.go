package integration

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
	List(ctx context.Context, agencyID, clientID int64) ([]*Integration, error)
	SetCredential(ctx context.Context, agencyID, clientID int64, provider, credential string) (*Integration, error)
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

// ListIntegrations expects access.Controller.RequireClientAccess to have run.
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	items, err := h.Service.List(r.Context(), sess.AgencyID, clientID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	resp := IntegrationsResponse{OK: true, Integrations: make([]IntegrationResponse, 0, len(items))}
	for _, item := range items {
		resp.Integrations = append(resp.Integrations, item.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) PutCredential(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	provider := chi.URLParam(r, "provider")

	var dto CredentialDTO
	if err := h.DecodeBody(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	item, err := h.Service.SetCredential(r.Context(), sess.AgencyID, clientID, provider, dto.Credential)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		AgencyID: sess.AgencyID,
		UserID:   audit.UserID(sess.UserID),
		Action:   audit.ActionCredentialUpdated,
		Context:  map[string]any{"client_id": clientID, "provider": provider},
		IP:       transport.ClientIP(r),
	})
	h.WriteJSON(w, http.StatusOK, IntegrationDetailResponse{OK: true, Integration: item.ToResponse()})
}

func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteAppError(w, internal.NewValidationFieldError("clientID", "invalid clientID", internal.ErrCodeValidationFailed))
		return 0, false
	}
	return id, true
}
