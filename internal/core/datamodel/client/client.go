package client

import "time"

type Client struct {
	ID        int64     `gorm:"primaryKey"`
	AgencyID  int64     `gorm:"column:agency_id;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Status    string    `gorm:"column:status;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Client) TableName() string {
	return "clients"
}

// ClientUserAccess grants an agency user visibility of one client.
type ClientUserAccess struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	ClientID  int64     `gorm:"column:client_id;primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ClientUserAccess) TableName() string {
	return "client_user_access"
}
