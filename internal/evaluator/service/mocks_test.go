package service

import (
	"context"
	"time"

	"golang-stock-calls/internal/entity"
	"golang-stock-calls/internal/evaluator/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPositionRepository is a mock implementation of PositionRepository for testing
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Position, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Position), args.Error(1)
}

func (m *MockPositionRepository) UpsertBatch(ctx context.Context, positions []entity.Position) error {
	args := m.Called(ctx, positions)
	return args.Error(0)
}

func (m *MockPositionRepository) UpdateEvaluation(ctx context.Context, position entity.Position) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

// MockUsageQuotaRepository is a mock implementation of UsageQuotaRepository for testing
type MockUsageQuotaRepository struct {
	mock.Mock
}

func (m *MockUsageQuotaRepository) Get(ctx context.Context, userID uuid.UUID, day time.Time) (*entity.UsageQuota, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UsageQuota), args.Error(1)
}

func (m *MockUsageQuotaRepository) Increment(ctx context.Context, userID uuid.UUID, day time.Time) error {
	args := m.Called(ctx, userID, day)
	return args.Error(0)
}

// MockUserProfileRepository is a mock implementation of UserProfileRepository for testing
type MockUserProfileRepository struct {
	mock.Mock
}

func (m *MockUserProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserProfile), args.Error(1)
}

func (m *MockUserProfileRepository) UpdateReputation(ctx context.Context, profile *entity.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockEvaluationRunRepository is a mock implementation of EvaluationRunRepository for testing
type MockEvaluationRunRepository struct {
	mock.Mock
}

func (m *MockEvaluationRunRepository) Create(ctx context.Context, run *entity.EvaluationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockEvaluationRunRepository) Update(ctx context.Context, run *entity.EvaluationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockEvaluationRunRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.EvaluationRun, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.EvaluationRun), args.Error(1)
}

// MockPriceRepository is a mock implementation of PriceRepository for testing
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) GetDailyBars(ctx context.Context, query dto.PriceQuery) ([]dto.OHLC, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.OHLC), args.Error(1)
}

// MockEvaluationService is a mock implementation of EvaluationService for testing
type MockEvaluationService struct {
	mock.Mock
}

func (m *MockEvaluationService) Run(ctx context.Context, req RunRequest) (*dto.EvaluationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EvaluationResponse), args.Error(1)
}

// MockNotifier is a mock implementation of telegram.Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendMessage(text string) error {
	args := m.Called(text)
	return args.Error(0)
}

func (m *MockNotifier) SendMessageUser(text string, chatID int64) error {
	args := m.Called(text, chatID)
	return args.Error(0)
}

// memoryQuotaRepository keeps counts in a map so quota boundaries can be driven end to end.
type memoryQuotaRepository struct {
	counts     map[string]int
	increments int
}

func newMemoryQuotaRepository() *memoryQuotaRepository {
	return &memoryQuotaRepository{counts: map[string]int{}}
}

func (r *memoryQuotaRepository) key(userID uuid.UUID, day time.Time) string {
	return userID.String() + "|" + day.Format("2006-01-02")
}

func (r *memoryQuotaRepository) Get(_ context.Context, userID uuid.UUID, day time.Time) (*entity.UsageQuota, error) {
	count, ok := r.counts[r.key(userID, day)]
	if !ok {
		return nil, nil
	}
	return &entity.UsageQuota{UserID: userID, UsageDate: day, Count: count}, nil
}

func (r *memoryQuotaRepository) Increment(_ context.Context, userID uuid.UUID, day time.Time) error {
	r.counts[r.key(userID, day)]++
	r.increments++
	return nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func bar(date string, open, high, low, close float64) dto.OHLC {
	return dto.OHLC{Date: date, Open: open, High: high, Low: low, Close: close, Volume: 1000}
}
