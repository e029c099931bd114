package repository

import (
	"context"

	"golang-stock-calls/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvaluationRunRepository defines the interface for evaluation run history data operations.
type EvaluationRunRepository interface {
	Create(ctx context.Context, run *entity.EvaluationRun) error
	Update(ctx context.Context, run *entity.EvaluationRun) error
	FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.EvaluationRun, error)
}

// NewEvaluationRunRepository creates a new GORM-based evaluation run repository.
func NewEvaluationRunRepository(db *gorm.DB) EvaluationRunRepository {
	return &evaluationRunRepository{db: db}
}

type evaluationRunRepository struct {
	db *gorm.DB
}

func (r *evaluationRunRepository) Create(ctx context.Context, run *entity.EvaluationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update saves every column of an existing run.
func (r *evaluationRunRepository) Update(ctx context.Context, run *entity.EvaluationRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// FindByUser returns the newest runs first.
func (r *evaluationRunRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.EvaluationRun, error) {
	var runs []entity.EvaluationRun
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
