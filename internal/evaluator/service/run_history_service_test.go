package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"golang-stock-calls/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunHistoryService_GetRunsByUser(t *testing.T) {
	userID := uuid.New()
	started := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)

	repo := new(MockEvaluationRunRepository)
	repo.On("FindByUser", mock.Anything, userID, 20).Return([]entity.EvaluationRun{
		{
			ID:           2,
			UserID:       userID,
			Trigger:      entity.RunTriggerSchedule,
			Status:       entity.RunStatusFailed,
			ErrorMessage: sql.NullString{String: "db down", Valid: true},
			StartedAt:    started,
			CompletedAt:  sql.NullTime{Time: started.Add(1500 * time.Millisecond), Valid: true},
		},
		{
			ID:        1,
			UserID:    userID,
			Trigger:   entity.RunTriggerAPI,
			Status:    entity.RunStatusRunning,
			StartedAt: started.Add(-time.Hour),
		},
	}, nil)

	runs, err := NewRunHistoryService(repo).GetRunsByUser(context.Background(), userID, 0)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "FAILED", runs[0].Status)
	assert.Equal(t, "db down", runs[0].ErrorMessage)
	assert.Equal(t, int64(1500), runs[0].DurationMs)
	require.NotNil(t, runs[0].CompletedAt)
	assert.Nil(t, runs[1].CompletedAt)
	assert.Equal(t, "api", runs[1].Trigger)
}

func TestRunHistoryService_ClampsLimit(t *testing.T) {
	userID := uuid.New()
	repo := new(MockEvaluationRunRepository)
	repo.On("FindByUser", mock.Anything, userID, 100).Return([]entity.EvaluationRun{}, nil)

	runs, err := NewRunHistoryService(repo).GetRunsByUser(context.Background(), userID, 5000)

	require.NoError(t, err)
	assert.Empty(t, runs)
	repo.AssertExpectations(t)
}

func TestRunHistoryService_WithoutPersistence(t *testing.T) {
	_, err := NewRunHistoryService(nil).GetRunsByUser(context.Background(), uuid.New(), 10)

	assert.ErrorIs(t, err, ErrPersistenceNotConfigured)
}
