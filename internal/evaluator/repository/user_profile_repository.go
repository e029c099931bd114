package repository

import (
	"context"

	"golang-stock-calls/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.UserProfile, error)
	UpdateReputation(ctx context.Context, profile *entity.UserProfile) error
}

type userProfileRepository struct {
	db *gorm.DB
}

func NewUserProfileRepository(db *gorm.DB) UserProfileRepository {
	return &userProfileRepository{db: db}
}

func (r *userProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.UserProfile, error) {
	var profile entity.UserProfile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateReputation writes only the reputation counters of the profile.
func (r *userProfileRepository) UpdateReputation(ctx context.Context, profile *entity.UserProfile) error {
	return r.db.WithContext(ctx).
		Model(&entity.UserProfile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"success_posts":    profile.SuccessPosts,
			"loss_posts":       profile.LossPosts,
			"experience_score": profile.ExperienceScore,
		}).Error
}
