package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/agency-dashboard/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByAgency(ctx context.Context, agencyID, userID int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND agency_id = ?", userID, agencyID).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
