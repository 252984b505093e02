package postgres

import (
	"context"

	"github.com/frahmantamala/agency-dashboard/internal/audit"
	auditDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.RepositoryAPI {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *auditDatamodel.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
