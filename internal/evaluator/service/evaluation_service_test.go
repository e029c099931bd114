package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang-stock-calls/internal/entity"
	"golang-stock-calls/internal/evaluator/config"
	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/internal/evaluator/repository"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type evaluationFixture struct {
	cfg          *config.Config
	userID       uuid.UUID
	positionRepo *MockPositionRepository
	priceRepo    *MockPriceRepository
	profileRepo  *MockUserProfileRepository
	quotaRepo    *memoryQuotaRepository
}

func newEvaluationFixture() *evaluationFixture {
	return &evaluationFixture{
		cfg: &config.Config{
			PriceAPI: config.PriceAPI{Provider: config.ProviderEOD, APIKey: "key"},
			Evaluation: config.Evaluation{
				MaxDailyChecks:   3,
				FetchTimeout:     time.Second,
				FetchConcurrency: 1,
				FetchCacheTTL:    time.Minute,
				BatchSize:        100,
				MaxRetries:       2,
				HistoryCap:       365,
				MarketCloseHour:  16,
			},
		},
		userID:       uuid.New(),
		positionRepo: new(MockPositionRepository),
		priceRepo:    new(MockPriceRepository),
		profileRepo:  new(MockUserProfileRepository),
		quotaRepo:    newMemoryQuotaRepository(),
	}
}

func (f *evaluationFixture) service() *evaluationService {
	log := logger.NewNop()
	svc := NewEvaluationService(f.cfg, log,
		f.positionRepo,
		nil,
		NewQuotaGate(f.quotaRepo, f.cfg.Evaluation.MaxDailyChecks, log),
		NewMarketDataFetcher(f.priceRepo, f.cfg.PriceAPI.Provider, f.cfg.Evaluation.FetchTimeout, f.cfg.Evaluation.FetchCacheTTL, log),
		NewClassifier(f.cfg.Evaluation, time.UTC),
		NewPersistenceBatcher(f.positionRepo, f.cfg.Evaluation, log),
		NewReputationUpdater(f.profileRepo, log),
		nil,
	).(*evaluationService)
	svc.now = func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) }
	return svc
}

func (f *evaluationFixture) position(symbol string, createdAt time.Time) entity.Position {
	return entity.Position{
		ID:            uuid.New(),
		UserID:        f.userID,
		Symbol:        symbol,
		Exchange:      "US",
		CompanyName:   symbol + " Corp",
		InitialPrice:  100,
		TargetPrice:   110,
		StopLossPrice: 90,
		CreatedAt:     createdAt,
	}
}

func (f *evaluationFixture) run(t *testing.T) *dto.EvaluationResponse {
	t.Helper()
	resp, err := f.service().Run(context.Background(), RunRequest{UserID: f.userID})
	require.NoError(t, err)
	return resp
}

func TestEvaluationService_TargetReachedClosesPosition(t *testing.T) {
	f := newEvaluationFixture()
	position := f.position("AAPL", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).
		Return([]dto.OHLC{bar("2024-01-02", 109, 115, 108, 112)}, nil)

	var written []entity.Position
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(1).([]entity.Position) }).
		Return(nil)

	f.profileRepo.On("FindByID", mock.Anything, f.userID).
		Return(&entity.UserProfile{ID: f.userID, SuccessPosts: 1}, nil)
	f.profileRepo.On("UpdateReputation", mock.Anything, mock.MatchedBy(func(p *entity.UserProfile) bool {
		return p.SuccessPosts == 2 && p.LossPosts == 0 && p.ExperienceScore == 2
	})).Return(nil)

	resp := f.run(t)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.UsageCount)
	assert.Equal(t, 2, resp.RemainingChecks)
	assert.Equal(t, 1, resp.CheckedPosts)
	assert.Equal(t, 1, resp.UpdatedPosts)
	assert.True(t, resp.UpdateSuccess)
	assert.True(t, resp.ExperienceUpdated)
	assert.Nil(t, resp.APIDetails)

	require.Len(t, resp.Results, 1)
	result := resp.Results[0]
	assert.True(t, result.TargetReached)
	assert.False(t, result.StopLossTriggered)
	assert.True(t, result.Closed)
	require.NotNil(t, result.TargetReachedDate)
	assert.Equal(t, "2024-01-02", *result.TargetReachedDate)
	require.NotNil(t, result.CurrentPrice)
	assert.Equal(t, 112.0, *result.CurrentPrice)

	require.Len(t, written, 1)
	assert.True(t, written[0].Closed)
	assert.True(t, written[0].TargetReached)
	require.NotNil(t, written[0].TargetHighPrice)
	assert.Equal(t, 115.0, *written[0].TargetHighPrice)
	assert.NotEmpty(t, written[0].PriceHistory)
	f.profileRepo.AssertExpectations(t)
}

func TestEvaluationService_StopLossCountsAsLoss(t *testing.T) {
	f := newEvaluationFixture()
	position := f.position("TSLA", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).
		Return([]dto.OHLC{bar("2024-01-02", 95, 96, 85, 88)}, nil)
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil)
	f.profileRepo.On("FindByID", mock.Anything, f.userID).
		Return(&entity.UserProfile{ID: f.userID, SuccessPosts: 1}, nil)
	f.profileRepo.On("UpdateReputation", mock.Anything, mock.MatchedBy(func(p *entity.UserProfile) bool {
		return p.SuccessPosts == 1 && p.LossPosts == 1 && p.ExperienceScore == 0
	})).Return(nil)

	resp := f.run(t)

	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].StopLossTriggered)
	assert.True(t, resp.Results[0].Closed)
	assert.Equal(t, 0.0, resp.Results[0].PercentToStopLoss)
	f.profileRepo.AssertExpectations(t)
}

func TestEvaluationService_QuotaExhaustedEvaluatesNothing(t *testing.T) {
	f := newEvaluationFixture()
	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{}, nil)

	svc := f.service()
	for i := 0; i < f.cfg.Evaluation.MaxDailyChecks; i++ {
		_, err := svc.Run(context.Background(), RunRequest{UserID: f.userID})
		require.NoError(t, err)
	}

	resp, err := svc.Run(context.Background(), RunRequest{UserID: f.userID})

	assert.Nil(t, resp)
	var quotaErr *QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 3, quotaErr.UsedCount)
	f.positionRepo.AssertNumberOfCalls(t, "FindByUser", 3)
	f.priceRepo.AssertNotCalled(t, "GetDailyBars", mock.Anything, mock.Anything)
}

func TestEvaluationService_PostAfterPriceDateLeavesStateUntouched(t *testing.T) {
	f := newEvaluationFixture()
	position := f.position("MSFT", time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC))
	position.CurrentPrice = utils.ToPointer(101.0)

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).
		Return([]dto.OHLC{bar("2024-01-03", 100, 120, 80, 115)}, nil)

	var written []entity.Position
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(1).([]entity.Position) }).
		Return(nil)

	resp := f.run(t)

	require.Len(t, written, 1)
	assert.True(t, written[0].PostDateAfterPriceDate)
	assert.False(t, written[0].PostAfterMarketClose)
	assert.False(t, written[0].TargetReached)
	assert.False(t, written[0].StopLossTriggered)
	assert.False(t, written[0].Closed)
	assert.Equal(t, 101.0, *written[0].CurrentPrice)
	assert.Equal(t, MessagePostAfterPriceDate, written[0].StatusMessage)

	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].PostDateAfterPriceDate)
	assert.False(t, resp.Results[0].Closed)
	assert.False(t, resp.ExperienceUpdated)
	f.profileRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestEvaluationService_PostAfterMarketCloseOnSameDay(t *testing.T) {
	f := newEvaluationFixture()
	position := f.position("NVDA", time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC))

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).
		Return([]dto.OHLC{bar("2024-01-05", 100, 130, 70, 100)}, nil)
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil)

	resp := f.run(t)

	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].PostAfterMarketClose)
	assert.False(t, resp.Results[0].TargetReached)
	assert.False(t, resp.Results[0].StopLossTriggered)
	assert.False(t, resp.Results[0].Closed)
}

func TestEvaluationService_NoDataSkipsPosition(t *testing.T) {
	f := newEvaluationFixture()
	position := f.position("GME", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).Return(nil, errors.New("status 502"))

	resp := f.run(t)

	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].NoDataAvailable)
	assert.Equal(t, MessageNoData, resp.Results[0].Message)
	assert.Equal(t, 0, resp.UpdatedPosts)
	assert.True(t, resp.UpdateSuccess)
	f.positionRepo.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
}

func TestEvaluationService_FallbackPriceKeepsPositionOpen(t *testing.T) {
	f := newEvaluationFixture()
	position := f.position("AMD", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	position.TargetPrice = 60
	position.StopLossPrice = 40
	position.InitialPrice = 45
	position.CurrentPrice = utils.ToPointer(50.0)

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).Return(nil, repository.ErrEmptyPriceSeries)

	resp, err := f.service().Run(context.Background(), RunRequest{UserID: f.userID, IncludeAPIDetails: true})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	result := resp.Results[0]
	assert.False(t, result.Closed)
	assert.Equal(t, 50.0, *result.CurrentPrice)
	assert.Equal(t, "20.00", result.PercentToTarget)
	assert.Contains(t, result.Message, "last known price")
	require.Len(t, resp.APIDetails, 1)
	assert.Equal(t, dto.APICallStatusFallback, resp.APIDetails[0].Status)
	// unchanged price with no resolution skips the write
	f.positionRepo.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
}

func TestEvaluationService_SkipsClosedPositions(t *testing.T) {
	f := newEvaluationFixture()
	closed := f.position("AAPL", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	closed.Closed = true
	closed.TargetReached = true
	open := f.position("MSFT", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{closed, open}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.MatchedBy(func(q dto.PriceQuery) bool { return q.Symbol == "MSFT" })).
		Return([]dto.OHLC{bar("2024-01-02", 100, 104, 96, 102)}, nil)
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil)

	resp := f.run(t)

	assert.Equal(t, 1, resp.ClosedPostsSkipped)
	assert.Equal(t, 1, resp.CheckedPosts)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, open.ID.String(), resp.Results[0].ID)
	assert.Equal(t, MessagePriceUpdated, resp.Results[0].Message)
	f.priceRepo.AssertNumberOfCalls(t, "GetDailyBars", 1)
}

func TestEvaluationService_FailedWritesAreNotCountedForReputation(t *testing.T) {
	f := newEvaluationFixture()
	f.cfg.Evaluation.MaxRetries = 0
	position := f.position("AAPL", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).
		Return([]dto.OHLC{bar("2024-01-02", 109, 115, 108, 112)}, nil)
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).Return(errors.New("db down"))
	f.positionRepo.On("UpdateEvaluation", mock.Anything, mock.Anything).Return(errors.New("db down"))

	resp := f.run(t)

	assert.True(t, resp.Success)
	assert.False(t, resp.UpdateSuccess)
	assert.Equal(t, 0, resp.UpdatedPosts)
	assert.False(t, resp.ExperienceUpdated)
	f.profileRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestEvaluationService_ConcurrentFetchKeepsOrder(t *testing.T) {
	f := newEvaluationFixture()
	f.cfg.Evaluation.FetchConcurrency = 4

	var positions []entity.Position
	for i := 0; i < 6; i++ {
		positions = append(positions, f.position(fmt.Sprintf("SYM%d", i), time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
	}
	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return(positions, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).
		Return([]dto.OHLC{bar("2024-01-02", 100, 104, 96, 102)}, nil)
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil)

	resp := f.run(t)

	require.Len(t, resp.Results, len(positions))
	for i, p := range positions {
		assert.Equal(t, p.ID.String(), resp.Results[i].ID)
	}
	assert.Equal(t, len(positions), resp.UpdatedPosts)
}

func TestEvaluationService_ConfigurationErrors(t *testing.T) {
	log := logger.NewNop()
	fetcher := NewMarketDataFetcher(new(MockPriceRepository), "eod", time.Second, time.Minute, log)
	positionRepo := new(MockPositionRepository)
	gate := NewQuotaGate(newMemoryQuotaRepository(), 10, log)
	batcher := NewPersistenceBatcher(positionRepo, config.Evaluation{BatchSize: 10}, log)
	classifier := NewClassifier(config.Evaluation{MarketCloseHour: 16}, time.UTC)

	tests := []struct {
		name    string
		cfg     config.PriceAPI
		repo    repository.PositionRepository
		fetcher MarketDataFetcher
		want    error
	}{
		{"no persistence", config.PriceAPI{Provider: "eod", APIKey: "k"}, nil, fetcher, ErrPersistenceNotConfigured},
		{"no provider", config.PriceAPI{APIKey: "k"}, positionRepo, fetcher, ErrPricingNotConfigured},
		{"no fetcher", config.PriceAPI{Provider: "eod", APIKey: "k"}, positionRepo, nil, ErrPricingNotConfigured},
		{"no api key", config.PriceAPI{Provider: "eod"}, positionRepo, fetcher, ErrPriceAPIKeyMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{PriceAPI: tt.cfg}
			svc := NewEvaluationService(cfg, log, tt.repo, nil, gate, tt.fetcher, classifier, batcher, nil, nil)

			_, err := svc.Run(context.Background(), RunRequest{UserID: uuid.New()})

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvaluationService_RequiresUser(t *testing.T) {
	f := newEvaluationFixture()

	_, err := f.service().Run(context.Background(), RunRequest{})

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEvaluationService_RecordsRunHistory(t *testing.T) {
	f := newEvaluationFixture()
	runRepo := new(MockEvaluationRunRepository)
	runRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entity.EvaluationRun) bool {
		return r.Status == entity.RunStatusRunning && r.Trigger == entity.RunTriggerSchedule
	})).Return(nil)
	runRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *entity.EvaluationRun) bool {
		return r.Status == entity.RunStatusCompleted && r.CheckedPosts == 0 && r.CompletedAt.Valid
	})).Return(nil)
	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{}, nil)

	svc := f.service()
	svc.runRepo = runRepo
	resp, err := svc.Run(context.Background(), RunRequest{UserID: f.userID, Trigger: entity.RunTriggerSchedule})

	require.NoError(t, err)
	assert.Equal(t, MessageNoOpenPosts, resp.Message)
	runRepo.AssertExpectations(t)
}

func TestEvaluationService_ReferenceDateBoundsFetchWindow(t *testing.T) {
	f := newEvaluationFixture()
	position := f.position("AAPL", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	reference := day(2024, 1, 3)

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.MatchedBy(func(q dto.PriceQuery) bool {
		return q.To.Equal(reference)
	})).Return([]dto.OHLC{bar("2024-01-02", 100, 104, 96, 102)}, nil)
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil)

	_, err := f.service().Run(context.Background(), RunRequest{UserID: f.userID, ReferenceDate: &reference})

	require.NoError(t, err)
	f.priceRepo.AssertExpectations(t)
}

func TestEvaluationService_CallerCancellationDoesNotAbortRun(t *testing.T) {
	f := newEvaluationFixture()
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	positions := []entity.Position{f.position("AAPL", created), f.position("MSFT", created)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return(positions, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.MatchedBy(func(q dto.PriceQuery) bool { return q.Symbol == "AAPL" })).
		Run(func(mock.Arguments) { cancel() }).
		Return([]dto.OHLC{bar("2024-01-02", 100, 104, 96, 102)}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.MatchedBy(func(q dto.PriceQuery) bool { return q.Symbol == "MSFT" })).
		Return([]dto.OHLC{bar("2024-01-02", 100, 105, 95, 103)}, nil)

	var ctxErrs []error
	recordCtx := func(args mock.Arguments) { ctxErrs = append(ctxErrs, args.Get(0).(context.Context).Err()) }
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).Run(recordCtx).Return(errors.New("deadlock")).Twice()
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).Run(recordCtx).Return(nil).Once()

	resp, err := f.service().Run(ctx, RunRequest{UserID: f.userID})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.UpdatedPosts)
	assert.True(t, resp.UpdateSuccess)
	require.Len(t, resp.Results, 2)
	for _, result := range resp.Results {
		assert.False(t, result.NoDataAvailable, result.Symbol)
		assert.NotNil(t, result.CurrentPrice, result.Symbol)
	}
	assert.Equal(t, []error{nil, nil, nil}, ctxErrs)
	f.positionRepo.AssertNumberOfCalls(t, "UpsertBatch", 3)
	f.positionRepo.AssertNotCalled(t, "UpdateEvaluation", mock.Anything, mock.Anything)
}

func TestEvaluationService_ClearsStaleValidityFlagsAtUnchangedPrice(t *testing.T) {
	f := newEvaluationFixture()
	position := f.position("AAPL", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	position.CurrentPrice = utils.ToPointer(101.0)
	position.HighPrice = utils.ToPointer(104.0)
	position.PostAfterMarketClose = true
	position.StatusMessage = MessagePostAfterMarketClose

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).
		Return([]dto.OHLC{bar("2024-01-02", 100, 104, 99, 101)}, nil)

	var written []entity.Position
	f.positionRepo.On("UpsertBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(1).([]entity.Position) }).
		Return(nil)

	resp := f.run(t)

	require.Len(t, written, 1)
	assert.False(t, written[0].PostAfterMarketClose)
	assert.False(t, written[0].PostDateAfterPriceDate)
	assert.Equal(t, MessagePriceUnchanged, written[0].StatusMessage)
	assert.Equal(t, 1, resp.UpdatedPosts)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].PostAfterMarketClose)
}

func TestEvaluationService_UnchangedPriceWithoutFlagsIsNotWritten(t *testing.T) {
	f := newEvaluationFixture()
	position := f.position("AAPL", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	position.CurrentPrice = utils.ToPointer(101.0)

	f.positionRepo.On("FindByUser", mock.Anything, f.userID).Return([]entity.Position{position}, nil)
	f.priceRepo.On("GetDailyBars", mock.Anything, mock.Anything).
		Return([]dto.OHLC{bar("2024-01-02", 100, 104, 99, 101)}, nil)

	resp := f.run(t)

	assert.Equal(t, 0, resp.UpdatedPosts)
	f.positionRepo.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
}
