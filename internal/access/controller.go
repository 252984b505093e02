package access

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/audit"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
)

type Controller struct {
	repo   RepositoryAPI
	audit  audit.Recorder
	logger *slog.Logger
}

func NewController(repo RepositoryAPI, recorder audit.Recorder, logger *slog.Logger) *Controller {
	return &Controller{
		repo:   repo,
		audit:  recorder,
		logger: logger,
	}
}

// CanAccessClient reports whether the user may see clientID. Every
// repository error denies.
func (c *Controller) CanAccessClient(ctx context.Context, agencyID, userID int64, role identity.Role, clientID int64) bool {
	if agencyID <= 0 || userID <= 0 || clientID <= 0 {
		return false
	}

	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	user, err := c.repo.FindActiveUser(ctx, agencyID, userID)
	if err != nil {
		logger.Request(ctx, c.logger).Error("access: user lookup failed", "agency_id", agencyID, "user_id", userID, "error", err)
		return false
	}
	if user == nil {
		return false
	}

	switch user.UserType {
	case identity.UserTypeClient:
		if user.ClientID == nil || *user.ClientID != clientID {
			return false
		}
		return c.activeClient(ctx, agencyID, clientID)
	case identity.UserTypeAgency:
	default:
		logger.Request(ctx, c.logger).Warn("access: unknown user type", "agency_id", agencyID, "user_id", userID, "user_type", user.UserType)
		return false
	}

	if HasCapability(role, ViewAllClients) {
		return c.activeClient(ctx, agencyID, clientID)
	}

	granted, err := c.repo.HasGrant(ctx, agencyID, userID, clientID)
	if err != nil {
		logger.Request(ctx, c.logger).Error("access: grant lookup failed", "agency_id", agencyID, "user_id", userID, "client_id", clientID, "error", err)
		return false
	}
	return granted
}

// AuthorizeClient is CanAccessClient for a session, returning a typed
// denial.
func (c *Controller) AuthorizeClient(ctx context.Context, s *session.Session, clientID int64) error {
	if !s.IsAuthenticated() {
		return &DeniedError{Reason: ReasonUnauthenticated, ClientID: clientID}
	}
	if !c.CanAccessClient(ctx, s.AgencyID, s.UserID, s.Role, clientID) {
		return &DeniedError{Reason: ReasonClientOutOfScope, ClientID: clientID}
	}
	return nil
}

func (c *Controller) activeClient(ctx context.Context, agencyID, clientID int64) bool {
	ok, err := c.repo.IsActiveClient(ctx, agencyID, clientID)
	if err != nil {
		logger.Request(ctx, c.logger).Error("access: client lookup failed", "agency_id", agencyID, "client_id", clientID, "error", err)
		return false
	}
	return ok
}
