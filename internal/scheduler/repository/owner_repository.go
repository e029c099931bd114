package repository

import (
	"context"

	"golang-stock-calls/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnerRepository lists users that have positions worth re-evaluating.
type OwnerRepository interface {
	FindOwnersWithOpenPositions(ctx context.Context) ([]uuid.UUID, error)
}

// NewOwnerRepository creates a new GORM-based owner repository.
func NewOwnerRepository(db *gorm.DB) OwnerRepository {
	return &ownerRepository{db: db}
}

type ownerRepository struct {
	db *gorm.DB
}

// FindOwnersWithOpenPositions returns each owner once, ordered by id.
func (r *ownerRepository) FindOwnersWithOpenPositions(ctx context.Context) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.Position{}).
		Where("closed = ?", false).
		Distinct().
		Order("user_id").
		Pluck("user_id", &owners).Error
	if err != nil {
		return nil, err
	}
	return owners, nil
}
