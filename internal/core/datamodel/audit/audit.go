package audit

import "time"

type AuditLog struct {
	ID        int64     `gorm:"primaryKey"`
	AgencyID  int64     `gorm:"column:agency_id;not null;index"`
	UserID    *int64    `gorm:"column:user_id"`
	Action    string    `gorm:"column:action;not null"`
	Context   []byte    `gorm:"column:context;type:jsonb"`
	IP        string    `gorm:"column:ip"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
