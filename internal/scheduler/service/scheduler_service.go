package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-stock-calls/internal/entity"
	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/internal/scheduler/config"
	"golang-stock-calls/internal/scheduler/repository"
	"golang-stock-calls/pkg/common"
	"golang-stock-calls/pkg/logger"

	"github.com/robfig/cron/v3"
)

// PublishSummary reports one fan-out of scheduled evaluation requests.
type PublishSummary struct {
	Owners    int
	Published int
	Failed    int
}

// ScheduleStatus describes the scheduler's cron state.
type ScheduleStatus struct {
	CronExpression string
	NextRun        time.Time
	LastRun        *time.Time
}

// SchedulerService publishes one evaluation request per owner of open positions
// whenever the configured cron expression comes due.
type SchedulerService interface {
	Start(ctx context.Context)
	ProcessSchedule(ctx context.Context)
	PublishEvaluations(ctx context.Context) (PublishSummary, error)
	Status() ScheduleStatus
}

// NewSchedulerService creates a new scheduler service.
func NewSchedulerService(ownerRepo repository.OwnerRepository, streamRepo repository.StreamRepository, logger *logger.Logger, cfg *config.Config) (SchedulerService, error) {
	schedule, err := config.CronParser.Parse(cfg.Scheduler.CronExpression)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cron expression: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Scheduler.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler time zone: %w", err)
	}

	s := &schedulerService{
		ownerRepo:  ownerRepo,
		streamRepo: streamRepo,
		logger:     logger,
		cfg:        cfg,
		schedule:   schedule,
		loc:        loc,
		now:        time.Now,
	}
	s.nextRun = s.schedule.Next(s.now().In(s.loc))
	return s, nil
}

type schedulerService struct {
	ownerRepo  repository.OwnerRepository
	streamRepo repository.StreamRepository
	logger     *logger.Logger
	cfg        *config.Config
	schedule   cron.Schedule
	loc        *time.Location
	now        func() time.Time

	mu      sync.Mutex
	nextRun time.Time
	lastRun *time.Time
}

// Start begins the periodic schedule check loop.
func (s *schedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Scheduler.PollingInterval)
	defer ticker.Stop()

	s.logger.Info("Scheduler service started",
		logger.StringField("cron_expression", s.cfg.Scheduler.CronExpression),
		logger.Field("next_run", s.Status().NextRun))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler service stopping")
			return
		case <-ticker.C:
			s.ProcessSchedule(ctx)
		}
	}
}

// ProcessSchedule publishes when the next cron time has passed. Runs missed
// while the service was down are not replayed.
func (s *schedulerService) ProcessSchedule(ctx context.Context) {
	now := s.now().In(s.loc)

	s.mu.Lock()
	if now.Before(s.nextRun) {
		s.mu.Unlock()
		return
	}
	s.lastRun = &now
	s.nextRun = s.schedule.Next(now)
	next := s.nextRun
	s.mu.Unlock()

	ctxTimeout, cancel := context.WithTimeout(ctx, s.cfg.Scheduler.PublishTimeout)
	defer cancel()

	summary, err := s.PublishEvaluations(ctxTimeout)
	if err != nil {
		s.logger.Error("Failed to publish scheduled evaluations", logger.ErrorField(err))
		return
	}
	s.logger.Info("Scheduled evaluations published",
		logger.IntField("owners", summary.Owners),
		logger.IntField("published", summary.Published),
		logger.IntField("failed", summary.Failed),
		logger.Field("next_run", next))
}

func (s *schedulerService) PublishEvaluations(ctx context.Context) (PublishSummary, error) {
	owners, err := s.ownerRepo.FindOwnersWithOpenPositions(ctx)
	if err != nil {
		return PublishSummary{}, fmt.Errorf("failed to list owners: %w", err)
	}

	summary := PublishSummary{Owners: len(owners)}
	for _, owner := range owners {
		payload := dto.StreamDataPositionEvaluation{
			UserID:  owner.String(),
			Trigger: string(entity.RunTriggerSchedule),
		}
		messageID, err := s.streamRepo.Publish(ctx, common.RedisStreamPositionEvaluation, payload)
		if err != nil {
			summary.Failed++
			s.logger.Error("Failed to enqueue evaluation", logger.ErrorField(err), logger.StringField("user_id", payload.UserID))
			continue
		}
		summary.Published++
		s.logger.Debug("Evaluation enqueued", logger.StringField("user_id", payload.UserID), logger.StringField("message_id", messageID))
	}
	return summary, nil
}

func (s *schedulerService) Status() ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ScheduleStatus{
		CronExpression: s.cfg.Scheduler.CronExpression,
		NextRun:        s.nextRun,
		LastRun:        s.lastRun,
	}
}
