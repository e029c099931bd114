package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserProfile struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username        string    `gorm:"type:varchar(100)" json:"username"`
	TelegramID      int64     `json:"telegram_id"`
	SuccessPosts    int       `gorm:"not null" json:"success_posts"`
	LossPosts       int       `gorm:"not null" json:"loss_posts"`
	ExperienceScore int       `gorm:"not null" json:"experience_score"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "profiles"
}
