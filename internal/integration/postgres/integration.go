package postgres

import (
	"context"

	integrationDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/integration"
	"github.com/frahmantamala/agency-dashboard/internal/integration"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IntegrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) integration.RepositoryAPI {
	return &IntegrationRepository{db: db}
}

func (r *IntegrationRepository) ListByClient(ctx context.Context, agencyID, clientID int64) ([]*integrationDatamodel.Integration, error) {
	var rows []*integrationDatamodel.Integration
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND client_id = ?", agencyID, clientID).
		Order("provider ASC").
		Find(&rows).Error
	return rows, err
}

func (r *IntegrationRepository) Upsert(ctx context.Context, row *integrationDatamodel.Integration) (*integrationDatamodel.Integration, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{"credential_ciphertext", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}

	var stored integrationDatamodel.Integration
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND provider = ?", row.ClientID, row.Provider).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
