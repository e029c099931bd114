package entity

import (
	"time"

	"github.com/google/uuid"
)

// UsageQuota counts evaluation runs per user per UTC day.
type UsageQuota struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	UsageDate time.Time `gorm:"type:date;primaryKey" json:"usage_date"`
	Count     int       `gorm:"not null" json:"count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UsageQuota) TableName() string {
	return "usage_quotas"
}
