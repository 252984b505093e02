package integration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/agency-dashboard/internal"
	integrationDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/integration"
)

type RepositoryAPI interface {
	ListByClient(ctx context.Context, agencyID, clientID int64) ([]*integrationDatamodel.Integration, error)
	// Upsert inserts or replaces the credential for (client_id, provider).
	Upsert(ctx context.Context, row *integrationDatamodel.Integration) (*integrationDatamodel.Integration, error)
}

// Sealer is the subset of cryptobox.Box the service needs.
type Sealer interface {
	EncryptString(plaintext string) (string, error)
	DecryptString(encoded string) (string, error)
}

type Service struct {
	repo   RepositoryAPI
	box    Sealer
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, box Sealer, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		box:    box,
		logger: logger,
	}
}

// List returns every integration of the client with a masked hint. A single
// unreadable credential fails the whole call.
func (s *Service) List(ctx context.Context, agencyID, clientID int64) ([]*Integration, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	rows, err := s.repo.ListByClient(ctx, agencyID, clientID)
	if err != nil {
		s.logger.Error("failed to list integrations", "agency_id", agencyID, "client_id", clientID, "error", err)
		return nil, err
	}

	out := make([]*Integration, 0, len(rows))
	for _, row := range rows {
		secret, err := s.box.DecryptString(row.CredentialCiphertext)
		if err != nil {
			s.logger.Error("stored credential could not be decrypted",
				"integration_id", row.ID, "client_id", clientID, "provider", row.Provider, "error", err)
			return nil, internal.ErrCredentialUnreadable.WithCause(err)
		}
		out = append(out, fromDataModel(row, Mask(secret)))
	}
	return out, nil
}

func (s *Service) SetCredential(ctx context.Context, agencyID, clientID int64, provider, credential string) (*Integration, error) {
	if !ValidProvider(provider) {
		return nil, internal.NewValidationFieldError("provider", "provider must match [a-z0-9_]+", internal.ErrCodeValidationFailed).WithCause(ErrInvalidProvider)
	}

	sealed, err := s.box.EncryptString(credential)
	if err != nil {
		return nil, fmt.Errorf("seal credential: %w", err)
	}

	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	row, err := s.repo.Upsert(ctx, &integrationDatamodel.Integration{
		AgencyID:             agencyID,
		ClientID:             clientID,
		Provider:             provider,
		CredentialCiphertext: sealed,
	})
	if err != nil {
		s.logger.Error("failed to store credential", "client_id", clientID, "provider", provider, "error", err)
		return nil, err
	}

	s.logger.Info("integration credential updated", "client_id", clientID, "provider", provider)
	return fromDataModel(row, Mask(credential)), nil
}
