package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang-stock-calls/internal/entity"
	"golang-stock-calls/internal/evaluator/config"
	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/internal/evaluator/repository"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MessageNoOpenPosts          = "No open posts to check"
	MessageNoData               = "No price data available and no stored price; post left unchanged"
	MessagePostAfterPriceDate   = "Post was created after the latest available price date; waiting for newer data"
	MessagePostAfterMarketClose = "Post was created after market close on the latest price date; waiting for the next trading day"
	MessageTargetReached        = "Target price reached"
	MessageStopLossTriggered    = "Stop-loss triggered"
	MessagePriceUpdated         = "Price updated"
	MessagePriceUnchanged       = "Price unchanged since last check"
	messageFallbackSuffix       = " (price API unavailable, using last known price)"
)

// RunRequest starts one evaluation run for a user.
type RunRequest struct {
	UserID            uuid.UUID
	Trigger           entity.RunTrigger
	ReferenceDate     *time.Time
	IncludeAPIDetails bool
}

// EvaluationService re-evaluates a user's open positions against daily prices.
type EvaluationService interface {
	Run(ctx context.Context, req RunRequest) (*dto.EvaluationResponse, error)
}

type evaluationService struct {
	cfg          *config.Config
	log          *logger.Logger
	positionRepo repository.PositionRepository
	runRepo      repository.EvaluationRunRepository
	quotaGate    QuotaGate
	fetcher      MarketDataFetcher
	classifier   *Classifier
	batcher      PersistenceBatcher
	reputation   ReputationUpdater
	notifier     CloseNotifier
	now          func() time.Time
}

// positionOutcome is what the per-position stages produce for one open position.
type positionOutcome struct {
	updated      entity.Position
	history      []dto.OHLC
	fetch        FetchResult
	validity     Validity
	metrics      Metrics
	message      string
	shouldUpdate bool
	newlyClosed  bool
}

func NewEvaluationService(cfg *config.Config, log *logger.Logger,
	positionRepo repository.PositionRepository,
	runRepo repository.EvaluationRunRepository,
	quotaGate QuotaGate,
	fetcher MarketDataFetcher,
	classifier *Classifier,
	batcher PersistenceBatcher,
	reputation ReputationUpdater,
	notifier CloseNotifier) EvaluationService {
	if notifier == nil {
		notifier = noopCloseNotifier{}
	}
	return &evaluationService{
		cfg:          cfg,
		log:          log,
		positionRepo: positionRepo,
		runRepo:      runRepo,
		quotaGate:    quotaGate,
		fetcher:      fetcher,
		classifier:   classifier,
		batcher:      batcher,
		reputation:   reputation,
		notifier:     notifier,
		now:          time.Now,
	}
}

func (s *evaluationService) checkConfiguration() error {
	if s.positionRepo == nil || s.quotaGate == nil || s.batcher == nil {
		return ErrPersistenceNotConfigured
	}
	if s.fetcher == nil || s.cfg.PriceAPI.Provider == "" {
		return ErrPricingNotConfigured
	}
	if s.cfg.PriceAPI.APIKey == "" {
		return ErrPriceAPIKeyMissing
	}
	return nil
}

func (s *evaluationService) Run(ctx context.Context, req RunRequest) (*dto.EvaluationResponse, error) {
	if err := s.checkConfiguration(); err != nil {
		return nil, err
	}
	if req.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if req.Trigger == "" {
		req.Trigger = entity.RunTriggerAPI
	}

	now := s.now().UTC()
	reference := now
	if req.ReferenceDate != nil {
		reference = req.ReferenceDate.UTC()
	}

	loggerFields := []zap.Field{
		logger.StringField("user_id", req.UserID.String()),
		logger.StringField("trigger", string(req.Trigger)),
		logger.StringField("reference_date", utils.FormatDate(reference)),
	}

	decision := s.quotaGate.CheckAndIncrement(ctx, req.UserID, now)
	if !decision.Allowed {
		s.log.InfoContext(ctx, "Daily evaluation quota exhausted", append(loggerFields, logger.IntField("usage_count", decision.UsedCount))...)
		return nil, &QuotaExceededError{UsedCount: decision.UsedCount, Limit: s.cfg.Evaluation.MaxDailyChecks}
	}

	// A run that has spent quota completes regardless of the caller. Network
	// calls stay bounded by the fetcher's per-call timeout.
	ctx = context.WithoutCancel(ctx)

	run := s.startRun(ctx, req, now)

	positions, err := s.positionRepo.FindByUser(ctx, req.UserID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load positions", append(loggerFields, logger.ErrorField(err))...)
		s.finishRun(ctx, run, nil, err)
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	open := make([]entity.Position, 0, len(positions))
	closedSkipped := 0
	for _, p := range positions {
		if p.Closed {
			closedSkipped++
			continue
		}
		open = append(open, p)
	}

	resp := &dto.EvaluationResponse{
		Success:            true,
		RemainingChecks:    decision.Remaining,
		UsageCount:         decision.UsedCount,
		CheckedPosts:       len(open),
		ClosedPostsSkipped: closedSkipped,
		UpdateSuccess:      true,
		Results:            []dto.PositionResult{},
	}

	if len(open) == 0 {
		resp.Message = MessageNoOpenPosts
		s.finishRun(ctx, run, resp, nil)
		return resp, nil
	}

	fetches := s.fetchAll(ctx, open, reference)

	outcomes := make([]positionOutcome, 0, len(open))
	toPersist := make([]PersistItem, 0, len(open))
	for i, p := range open {
		outcome := s.evaluatePosition(p, fetches[i], now)
		outcomes = append(outcomes, outcome)
		if outcome.shouldUpdate {
			toPersist = append(toPersist, PersistItem{Position: outcome.updated, Series: outcome.history})
		}
		if req.IncludeAPIDetails {
			resp.APIDetails = append(resp.APIDetails, outcome.fetch.Detail)
		}
	}

	persisted := s.batcher.Persist(ctx, toPersist)
	resp.UpdatedPosts = len(persisted.SucceededIDs)
	resp.UpdateSuccess = persisted.UpdateSuccess

	written := make(map[uuid.UUID]bool, len(persisted.SucceededIDs))
	for _, id := range persisted.SucceededIDs {
		written[id] = true
	}

	var delta ReputationDelta
	var closed []entity.Position
	for _, o := range outcomes {
		resp.Results = append(resp.Results, toPositionResult(o))
		if !o.newlyClosed || !written[o.updated.ID] {
			continue
		}
		closed = append(closed, o.updated)
		if o.updated.TargetReached {
			delta.Successful++
		} else if o.updated.StopLossTriggered {
			delta.Lost++
		}
	}

	if s.reputation != nil {
		updated, err := s.reputation.Apply(ctx, req.UserID, delta)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to update reputation", append(loggerFields, logger.ErrorField(err))...)
		}
		resp.ExperienceUpdated = updated
	}

	s.notifier.NotifyClosed(ctx, req.UserID, closed)

	resp.Message = fmt.Sprintf("Checked %d open posts, updated %d, closed %d", resp.CheckedPosts, resp.UpdatedPosts, len(closed))
	if !resp.UpdateSuccess {
		resp.Message += fmt.Sprintf("; %d updates failed", len(persisted.FailedIDs))
	}

	s.log.InfoContext(ctx, "Evaluation run completed", append(loggerFields,
		logger.IntField("checked_posts", resp.CheckedPosts),
		logger.IntField("updated_posts", resp.UpdatedPosts),
		logger.IntField("closed_posts", len(closed)),
		logger.Field("update_success", resp.UpdateSuccess))...)

	if run != nil {
		run.ClosedPosts = len(closed)
		run.FailedPositionIDs = uuidStrings(persisted.FailedIDs)
	}
	s.finishRun(ctx, run, resp, nil)
	return resp, nil
}

// fetchAll keeps results in position order. With fetch_concurrency > 1 the
// fetches run on a bounded pool; every other stage stays sequential.
func (s *evaluationService) fetchAll(ctx context.Context, positions []entity.Position, reference time.Time) []FetchResult {
	results := make([]FetchResult, len(positions))

	workers := s.cfg.Evaluation.FetchConcurrency
	if workers <= 1 {
		for i, p := range positions {
			results[i] = s.fetcher.Fetch(ctx, fetchRequest(p, reference))
		}
		return results
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, p := range positions {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p entity.Position) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.fetcher.Fetch(ctx, fetchRequest(p, reference))
		}(i, p)
	}
	wg.Wait()
	return results
}

func fetchRequest(p entity.Position, reference time.Time) FetchRequest {
	return FetchRequest{
		PositionID:     p.ID,
		Symbol:         p.Symbol,
		Exchange:       p.Exchange,
		From:           p.CreatedAt,
		To:             reference,
		LastKnownPrice: p.CurrentPrice,
	}
}

func (s *evaluationService) evaluatePosition(p entity.Position, fetch FetchResult, now time.Time) positionOutcome {
	outcome := positionOutcome{updated: p, fetch: fetch}

	if fetch.NoData {
		outcome.message = MessageNoData
		return outcome
	}

	// a synthetic point must not replace the stored history
	if !fetch.Fallback {
		outcome.history = fetch.Series
	}

	updated := p
	updated.LastPriceCheckAt = utils.ToPointer(now)

	outcome.validity = s.classifier.Classify(p, fetch.Series)
	switch outcome.validity {
	case ValidityPostAfterPriceDate:
		updated.PostDateAfterPriceDate = true
		updated.PostAfterMarketClose = false
		updated.NoDataAvailable = false
		updated.StatusMessage = MessagePostAfterPriceDate
		outcome.updated = updated
		outcome.message = MessagePostAfterPriceDate
		outcome.shouldUpdate = true
		return outcome
	case ValidityPostAfterMarketClose:
		updated.PostDateAfterPriceDate = false
		updated.PostAfterMarketClose = true
		updated.NoDataAvailable = false
		updated.StatusMessage = MessagePostAfterMarketClose
		outcome.updated = updated
		outcome.message = MessagePostAfterMarketClose
		outcome.shouldUpdate = true
		return outcome
	}

	scan := Scan(fetch.Series, p.TargetPrice, p.StopLossPrice)
	metrics := ComputeMetrics(MetricsInput{
		Series:        fetch.Series,
		Scan:          scan,
		InitialPrice:  p.InitialPrice,
		TargetPrice:   p.TargetPrice,
		StopLossPrice: p.StopLossPrice,
		PreviousPrice: p.CurrentPrice,
		PreviousHigh:  p.HighPrice,
		Fallback:      fetch.Fallback,
	})

	updated.PostDateAfterPriceDate = false
	updated.PostAfterMarketClose = false
	updated.NoDataAvailable = false
	updated.CurrentPrice = utils.ToPointer(metrics.CurrentPrice)
	updated.HighPrice = utils.ToPointer(metrics.HighPrice)

	var message string
	switch {
	case scan.TargetReached:
		updated.TargetReached = true
		updated.TargetReachedDate = parseDay(scan.TargetReachedDate)
		updated.TargetHighPrice = utils.ToPointer(scan.HighPriceAtTarget)
		if scan.TargetHitTime != "" {
			updated.TargetHitTime = utils.ToPointer(scan.TargetHitTime)
		}
		updated.StopLossTriggered = false
		updated.StopLossTriggeredDate = nil
		message = fmt.Sprintf("%s on %s", MessageTargetReached, scan.TargetReachedDate)
	case scan.StopLossTriggered:
		updated.StopLossTriggered = true
		updated.StopLossTriggeredDate = parseDay(scan.StopLossTriggeredDate)
		message = fmt.Sprintf("%s on %s", MessageStopLossTriggered, scan.StopLossTriggeredDate)
	case metrics.ShouldUpdate:
		message = MessagePriceUpdated
	default:
		message = MessagePriceUnchanged
	}
	if fetch.Fallback {
		message += messageFallbackSuffix
	}

	updated.Closed = metrics.ShouldClose
	updated.StatusMessage = message

	outcome.updated = updated
	outcome.metrics = metrics
	outcome.message = message
	// stale validity flags are cleared even when the price did not move
	outcome.shouldUpdate = metrics.ShouldUpdate ||
		p.PostDateAfterPriceDate || p.PostAfterMarketClose || p.NoDataAvailable
	outcome.newlyClosed = metrics.ShouldClose && !p.Closed
	return outcome
}

func toPositionResult(o positionOutcome) dto.PositionResult {
	p := o.updated
	result := dto.PositionResult{
		ID:                     p.ID.String(),
		Symbol:                 p.Symbol,
		CompanyName:            p.CompanyName,
		CurrentPrice:           p.CurrentPrice,
		TargetPrice:            p.TargetPrice,
		StopLossPrice:          p.StopLossPrice,
		TargetReached:          p.TargetReached,
		StopLossTriggered:      p.StopLossTriggered,
		TargetReachedDate:      formatDay(p.TargetReachedDate),
		StopLossTriggeredDate:  formatDay(p.StopLossTriggeredDate),
		Closed:                 p.Closed,
		Message:                o.message,
		NoDataAvailable:        o.fetch.NoData,
		PostDateAfterPriceDate: p.PostDateAfterPriceDate,
		PostAfterMarketClose:   p.PostAfterMarketClose,
	}

	if !o.fetch.NoData && o.validity == ValidityUsable {
		result.PercentToTarget = o.metrics.PercentToTarget
		result.PercentToStopLoss = o.metrics.PercentToStopLoss
		return result
	}

	current := 0.0
	if p.CurrentPrice != nil {
		current = *p.CurrentPrice
	}
	result.PercentToTarget = PercentToTarget(p.TargetPrice, current, p.InitialPrice, p.StopLossPrice)
	result.PercentToStopLoss = PercentToStopLoss(p.StopLossPrice, current, p.StopLossTriggered)
	return result
}

func (s *evaluationService) startRun(ctx context.Context, req RunRequest, now time.Time) *entity.EvaluationRun {
	if s.runRepo == nil {
		return nil
	}
	run := &entity.EvaluationRun{
		UserID:    req.UserID,
		Trigger:   req.Trigger,
		Status:    entity.RunStatusRunning,
		StartedAt: now,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.log.WarnContext(ctx, "Failed to record evaluation run", logger.StringField("user_id", req.UserID.String()), logger.ErrorField(err))
		return nil
	}
	return run
}

func (s *evaluationService) finishRun(ctx context.Context, run *entity.EvaluationRun, resp *dto.EvaluationResponse, runErr error) {
	if run == nil {
		return
	}

	run.CompletedAt = sql.NullTime{Time: s.now().UTC(), Valid: true}
	if runErr != nil {
		run.Status = entity.RunStatusFailed
		run.ErrorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	} else {
		run.Status = entity.RunStatusCompleted
	}

	if resp != nil {
		run.CheckedPosts = resp.CheckedPosts
		run.UpdatedPosts = resp.UpdatedPosts
		run.UpdateSuccess = resp.UpdateSuccess

		summary := *resp
		summary.Results = nil
		summary.APIDetails = nil
		if raw, err := json.Marshal(summary); err == nil {
			run.Output = raw
		}
	}

	if err := s.runRepo.Update(ctx, run); err != nil {
		s.log.WarnContext(ctx, "Failed to update evaluation run", logger.Field("run_id", run.ID), logger.ErrorField(err))
	}
}

func parseDay(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := utils.ParseDate(value)
	if err != nil {
		return nil
	}
	return &t
}

func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return utils.ToPointer(utils.FormatDate(*t))
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
