package service

import (
	"context"
	"encoding/json"
	"time"

	"golang-stock-calls/internal/entity"
	"golang-stock-calls/internal/evaluator/config"
	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/internal/evaluator/repository"
	"golang-stock-calls/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PersistItem is one position to write together with the series fetched for it.
type PersistItem struct {
	Position entity.Position
	Series   []dto.OHLC
}

// PersistResult reports which positions were written.
type PersistResult struct {
	SucceededIDs  []uuid.UUID
	FailedIDs     []uuid.UUID
	UpdateSuccess bool
	UsedFallback  bool
}

// PersistenceBatcher writes evaluation results in fixed-size upsert batches.
type PersistenceBatcher interface {
	Persist(ctx context.Context, items []PersistItem) PersistResult
}

type persistenceBatcher struct {
	repo         repository.PositionRepository
	batchSize    int
	maxRetries   int
	retryBackoff time.Duration
	historyCap   int
	log          *logger.Logger
	sleep        func(ctx context.Context, d time.Duration) bool
}

func NewPersistenceBatcher(repo repository.PositionRepository, cfg config.Evaluation, log *logger.Logger) PersistenceBatcher {
	return &persistenceBatcher{
		repo:         repo,
		batchSize:    cfg.BatchSize,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		historyCap:   cfg.HistoryCap,
		log:          log,
		sleep:        sleepContext,
	}
}

// Persist tries the batched path 1+maxRetries times with linear backoff, then
// falls back to one update per position.
func (b *persistenceBatcher) Persist(ctx context.Context, items []PersistItem) PersistResult {
	if len(items) == 0 {
		return PersistResult{UpdateSuccess: true}
	}

	records := make([]entity.Position, 0, len(items))
	for _, item := range items {
		records = append(records, b.project(ctx, item))
	}

	var err error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			if !b.sleep(ctx, b.retryBackoff*time.Duration(attempt)) {
				break
			}
		}
		if err = b.writeBatches(ctx, records); err == nil {
			return PersistResult{SucceededIDs: positionIDs(records), UpdateSuccess: true}
		}
		b.log.WarnContext(ctx, "Batched position write failed",
			logger.IntField("attempt", attempt+1),
			logger.IntField("positions", len(records)),
			logger.ErrorField(err))
	}

	result := PersistResult{UsedFallback: true}
	for _, record := range records {
		if err := b.repo.UpdateEvaluation(ctx, record); err != nil {
			b.log.ErrorContext(ctx, "Individual position write failed",
				logger.StringField("position_id", record.ID.String()),
				logger.ErrorField(err))
			result.FailedIDs = append(result.FailedIDs, record.ID)
			continue
		}
		result.SucceededIDs = append(result.SucceededIDs, record.ID)
	}
	result.UpdateSuccess = len(result.FailedIDs) == 0
	return result
}

func (b *persistenceBatcher) writeBatches(ctx context.Context, records []entity.Position) error {
	for start := 0; start < len(records); start += b.batchSize {
		end := start + b.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := b.repo.UpsertBatch(ctx, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// project keeps identity columns, which the upsert needs for its insert half,
// and the evaluation columns. Everything else is zeroed.
func (b *persistenceBatcher) project(ctx context.Context, item PersistItem) entity.Position {
	p := item.Position
	return entity.Position{
		ID:                     p.ID,
		UserID:                 p.UserID,
		Symbol:                 p.Symbol,
		Exchange:               p.Exchange,
		CompanyName:            p.CompanyName,
		InitialPrice:           p.InitialPrice,
		TargetPrice:            p.TargetPrice,
		StopLossPrice:          p.StopLossPrice,
		CreatedAt:              p.CreatedAt,
		CurrentPrice:           p.CurrentPrice,
		HighPrice:              p.HighPrice,
		TargetHighPrice:        p.TargetHighPrice,
		TargetReached:          p.TargetReached,
		TargetReachedDate:      p.TargetReachedDate,
		TargetHitTime:          p.TargetHitTime,
		StopLossTriggered:      p.StopLossTriggered,
		StopLossTriggeredDate:  p.StopLossTriggeredDate,
		Closed:                 p.Closed,
		LastPriceCheckAt:       p.LastPriceCheckAt,
		StatusMessage:          p.StatusMessage,
		PostDateAfterPriceDate: p.PostDateAfterPriceDate,
		PostAfterMarketClose:   p.PostAfterMarketClose,
		NoDataAvailable:        p.NoDataAvailable,
		PriceHistory:           b.boundedHistory(ctx, p, item.Series),
	}
}

// boundedHistory replaces the stored history with the newest historyCap bars of series.
func (b *persistenceBatcher) boundedHistory(ctx context.Context, p entity.Position, series []dto.OHLC) datatypes.JSON {
	if len(series) == 0 {
		return p.PriceHistory
	}
	if b.historyCap > 0 && len(series) > b.historyCap {
		series = series[len(series)-b.historyCap:]
	}
	raw, err := json.Marshal(series)
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to encode price history, keeping previous",
			logger.StringField("position_id", p.ID.String()),
			logger.ErrorField(err))
		return p.PriceHistory
	}
	return datatypes.JSON(raw)
}

func positionIDs(records []entity.Position) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

// sleepContext waits for d or until ctx is done, reporting whether the full wait elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
