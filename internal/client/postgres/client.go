package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/agency-dashboard/internal/client"
	clientDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/client"
	userDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) client.RepositoryAPI {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) ListActiveByAgency(ctx context.Context, agencyID int64) ([]*clientDatamodel.Client, error) {
	var clients []*clientDatamodel.Client
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND status = ?", agencyID, identity.StatusActive).
		Order("name ASC").
		Find(&clients).Error
	return clients, err
}

func (r *ClientRepository) ListGranted(ctx context.Context, agencyID, userID int64) ([]*clientDatamodel.Client, error) {
	var clients []*clientDatamodel.Client
	err := r.db.WithContext(ctx).
		Table("clients AS c").
		Select("c.*").
		Joins("INNER JOIN client_user_access cua ON cua.client_id = c.id").
		Where("cua.user_id = ? AND c.agency_id = ? AND c.status = ?", userID, agencyID, identity.StatusActive).
		Order("c.name ASC").
		Find(&clients).Error
	return clients, err
}

func (r *ClientRepository) GetActive(ctx context.Context, agencyID, clientID int64) (*clientDatamodel.Client, error) {
	var c clientDatamodel.Client
	err := r.db.WithContext(ctx).
		Where("id = ? AND agency_id = ? AND status = ?", clientID, agencyID, identity.StatusActive).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) IsActiveAgencyUser(ctx context.Context, agencyID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND agency_id = ? AND is_active = ? AND user_type = ?", userID, agencyID, true, string(identity.UserTypeAgency)).
		Count(&count).Error
	return count > 0, err
}

func (r *ClientRepository) CreateGrant(ctx context.Context, userID, clientID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&clientDatamodel.ClientUserAccess{UserID: userID, ClientID: clientID}).Error
}

func (r *ClientRepository) DeleteGrant(ctx context.Context, userID, clientID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND client_id = ?", userID, clientID).
		Delete(&clientDatamodel.ClientUserAccess{})
	return res.RowsAffected > 0, res.Error
}
