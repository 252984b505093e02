package user

import "time"

type User struct {
	ID           int64      `gorm:"primaryKey"`
	AgencyID     int64      `gorm:"column:agency_id;not null;uniqueIndex:idx_users_agency_email"`
	Email        string     `gorm:"column:email;not null;uniqueIndex:idx_users_agency_email"`
	Name         string     `gorm:"column:name;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         string     `gorm:"column:role;not null"`
	UserType     string     `gorm:"column:user_type;not null"`
	ClientID     *int64     `gorm:"column:client_id"`
	IsActive     bool       `gorm:"column:is_active"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
