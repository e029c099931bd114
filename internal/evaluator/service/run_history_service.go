package service

import (
	"context"

	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/internal/evaluator/repository"

	"github.com/google/uuid"
)

const (
	defaultRunHistoryLimit = 20
	maxRunHistoryLimit     = 100
)

// RunHistoryService defines the interface for reading past evaluation runs.
type RunHistoryService interface {
	GetRunsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]dto.EvaluationRunResponse, error)
}

type runHistoryService struct {
	runRepo repository.EvaluationRunRepository
}

// NewRunHistoryService creates a new RunHistoryService.
func NewRunHistoryService(runRepo repository.EvaluationRunRepository) RunHistoryService {
	return &runHistoryService{runRepo: runRepo}
}

// GetRunsByUser returns the newest runs first. limit is clamped to [1, 100] and defaults to 20.
func (s *runHistoryService) GetRunsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]dto.EvaluationRunResponse, error) {
	if s.runRepo == nil {
		return nil, ErrPersistenceNotConfigured
	}
	if limit <= 0 {
		limit = defaultRunHistoryLimit
	}
	if limit > maxRunHistoryLimit {
		limit = maxRunHistoryLimit
	}

	runs, err := s.runRepo.FindByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EvaluationRunResponse, 0, len(runs))
	for _, run := range runs {
		resp := dto.EvaluationRunResponse{
			ID:                run.ID,
			Trigger:           string(run.Trigger),
			Status:            string(run.Status),
			CheckedPosts:      run.CheckedPosts,
			UpdatedPosts:      run.UpdatedPosts,
			ClosedPosts:       run.ClosedPosts,
			UpdateSuccess:     run.UpdateSuccess,
			FailedPositionIDs: run.FailedPositionIDs,
			StartedAt:         run.StartedAt,
		}
		if run.ErrorMessage.Valid {
			resp.ErrorMessage = run.ErrorMessage.String
		}
		if run.CompletedAt.Valid {
			completedAt := run.CompletedAt.Time
			resp.CompletedAt = &completedAt
			resp.DurationMs = completedAt.Sub(run.StartedAt).Milliseconds()
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
