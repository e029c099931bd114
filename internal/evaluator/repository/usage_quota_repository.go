package repository

import (
	"context"
	"errors"
	"time"

	"golang-stock-calls/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsageQuotaRepository interface {
	// Get returns nil without error when no row exists for the day.
	Get(ctx context.Context, userID uuid.UUID, day time.Time) (*entity.UsageQuota, error)
	// Increment adds one to the day's count, creating the row at 1.
	Increment(ctx context.Context, userID uuid.UUID, day time.Time) error
}

type usageQuotaRepository struct {
	db *gorm.DB
}

func NewUsageQuotaRepository(db *gorm.DB) UsageQuotaRepository {
	return &usageQuotaRepository{db: db}
}

func (r *usageQuotaRepository) Get(ctx context.Context, userID uuid.UUID, day time.Time) (*entity.UsageQuota, error) {
	var quota entity.UsageQuota
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND usage_date = ?", userID, day).
		First(&quota).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

func (r *usageQuotaRepository) Increment(ctx context.Context, userID uuid.UUID, day time.Time) error {
	quota := entity.UsageQuota{
		UserID:    userID,
		UsageDate: day,
		Count:     1,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "usage_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("usage_quotas.count + 1"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&quota).Error
}
