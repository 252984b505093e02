package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/agency-dashboard/internal/auth"
	agencyDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/agency"
	clientDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/client"
	userDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) FindActiveAgencyBySlug(ctx context.Context, slug string) (*agencyDatamodel.Agency, error) {
	var agency agencyDatamodel.Agency
	err := r.db.WithContext(ctx).
		Where("slug = ? AND status = ?", slug, identity.StatusActive).
		First(&agency).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agency, nil
}

func (r *Repository) FindActiveUser(ctx context.Context, agencyID int64, email string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND email = ? AND is_active = ?", agencyID, email, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) IsActiveClient(ctx context.Context, agencyID, clientID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&clientDatamodel.Client{}).
		Where("id = ? AND agency_id = ? AND status = ?", clientID, agencyID, identity.StatusActive).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}
