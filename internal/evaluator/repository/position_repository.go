package repository

import (
	"context"

	"golang-stock-calls/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PositionRepository defines the persistence operations of the evaluation pipeline on positions.
type PositionRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Position, error)
	// UpsertBatch writes the evaluation columns of positions in one statement.
	// Rows are matched on id; columns outside entity.PositionEvaluationColumns are never overwritten.
	UpsertBatch(ctx context.Context, positions []entity.Position) error
	// UpdateEvaluation writes the evaluation columns of a single position.
	UpdateEvaluation(ctx context.Context, position entity.Position) error
}

type positionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{
		db: db,
	}
}

func (r *positionRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Position, error) {
	var positions []entity.Position
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *positionRepository) UpsertBatch(ctx context.Context, positions []entity.Position) error {
	if len(positions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(entity.PositionEvaluationColumns),
	}).Create(&positions).Error
}

func (r *positionRepository) UpdateEvaluation(ctx context.Context, position entity.Position) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Position{}).
		Where("id = ?", position.ID).
		Select(entity.PositionEvaluationColumns).
		Updates(&position)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
