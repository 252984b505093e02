package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/agency-dashboard/internal"
	userDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	// GetByAgency returns nil, nil when no user matches both ids.
	GetByAgency(ctx context.Context, agencyID, userID int64) (*userDatamodel.User, error)
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

func (s *Service) Profile(ctx context.Context, agencyID, userID int64) (*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	row, err := s.repo.GetByAgency(ctx, agencyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if row == nil {
		s.logger.Warn("profile requested for missing user", "agency_id", agencyID, "user_id", userID)
		return nil, ErrNotFound
	}
	return FromDataModel(row), nil
}
