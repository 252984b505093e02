package integration

import "time"

type Integration struct {
	ID                   int64     `gorm:"primaryKey"`
	AgencyID             int64     `gorm:"column:agency_id;not null;index"`
	ClientID             int64     `gorm:"column:client_id;not null;uniqueIndex:idx_integrations_client_provider"`
	Provider             string    `gorm:"column:provider;not null;uniqueIndex:idx_integrations_client_provider"`
	CredentialCiphertext string    `gorm:"column:credential_ciphertext;not null"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Integration) TableName() string {
	return "integrations"
}
