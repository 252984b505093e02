package agency

import "time"

type Agency struct {
	ID           int64     `gorm:"primaryKey"`
	Slug         string    `gorm:"column:slug;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	Status       string    `gorm:"column:status;not null"`
	LogoURL      *string   `gorm:"column:logo_url"`
	PrimaryColor *string   `gorm:"column:primary_color"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Agency) TableName() string {
	return "agencies"
}
