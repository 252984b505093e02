package client

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/access"
	clientDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/client"
	"github.com/frahmantamala/agency-dashboard/internal/session"
)

type RepositoryAPI interface {
	ListActiveByAgency(ctx context.Context, agencyID int64) ([]*clientDatamodel.Client, error)
	// ListGranted returns active clients of the agency the user holds a grant on.
	ListGranted(ctx context.Context, agencyID, userID int64) ([]*clientDatamodel.Client, error)
	// GetActive returns nil, nil when the client is missing, inactive or foreign.
	GetActive(ctx context.Context, agencyID, clientID int64) (*clientDatamodel.Client, error)
	// IsActiveAgencyUser reports whether userID is an active agency-type user of the agency.
	IsActiveAgencyUser(ctx context.Context, agencyID, userID int64) (bool, error)
	CreateGrant(ctx context.Context, userID, clientID int64) error
	DeleteGrant(ctx context.Context, userID, clientID int64) (bool, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ListVisible returns the clients the session may open, using the same
// rules as access.Controller.CanAccessClient.
func (s *Service) ListVisible(ctx context.Context, sess *session.Session) ([]*Client, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var (
		rows []*clientDatamodel.Client
		err  error
	)
	switch {
	case sess.IsClientUser():
		if sess.ClientID == nil {
			return []*Client{}, nil
		}
		var own *clientDatamodel.Client
		own, err = s.repo.GetActive(ctx, sess.AgencyID, *sess.ClientID)
		if own != nil {
			rows = append(rows, own)
		}
	case access.HasCapability(sess.Role, access.ViewAllClients):
		rows, err = s.repo.ListActiveByAgency(ctx, sess.AgencyID)
	default:
		rows, err = s.repo.ListGranted(ctx, sess.AgencyID, sess.UserID)
	}
	if err != nil {
		s.logger.Error("failed to list clients", "agency_id", sess.AgencyID, "user_id", sess.UserID, "error", err)
		return nil, err
	}

	clients := make([]*Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, FromDataModel(row))
	}
	s.logger.Debug("listed visible clients", "agency_id", sess.AgencyID, "count", len(clients))
	return clients, nil
}

func (s *Service) Get(ctx context.Context, agencyID, clientID int64) (*Client, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	row, err := s.repo.GetActive(ctx, agencyID, clientID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, internal.ErrClientNotFound
	}
	return FromDataModel(row), nil
}

// Grant gives an agency user visibility of a client. Granting twice is a
// no-op.
func (s *Service) Grant(ctx context.Context, agencyID, clientID, userID int64) error {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	if err := s.checkPair(ctx, agencyID, clientID, userID); err != nil {
		return err
	}
	return s.repo.CreateGrant(ctx, userID, clientID)
}

func (s *Service) Revoke(ctx context.Context, agencyID, clientID, userID int64) error {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	if err := s.checkPair(ctx, agencyID, clientID, userID); err != nil {
		return err
	}
	removed, err := s.repo.DeleteGrant(ctx, userID, clientID)
	if err != nil {
		return err
	}
	if !removed {
		s.logger.Debug("revoke: no grant to remove", "client_id", clientID, "user_id", userID)
	}
	return nil
}

func (s *Service) checkPair(ctx context.Context, agencyID, clientID, userID int64) error {
	c, err := s.repo.GetActive(ctx, agencyID, clientID)
	if err != nil {
		return err
	}
	if c == nil {
		return internal.ErrClientNotFound
	}

	ok, err := s.repo.IsActiveAgencyUser(ctx, agencyID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrUserNotFound
	}
	return nil
}
