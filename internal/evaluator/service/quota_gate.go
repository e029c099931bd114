package service

import (
	"context"
	"time"

	"golang-stock-calls/internal/evaluator/repository"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/utils"

	"github.com/google/uuid"
)

// QuotaDecision is the outcome of a quota check for one run.
type QuotaDecision struct {
	Allowed   bool
	UsedCount int
	Remaining int
}

// QuotaGate limits how many evaluation runs a user may start per UTC day.
type QuotaGate interface {
	CheckAndIncrement(ctx context.Context, userID uuid.UUID, today time.Time) QuotaDecision
}

type quotaGate struct {
	repo           repository.UsageQuotaRepository
	maxDailyChecks int
	log            *logger.Logger
}

func NewQuotaGate(repo repository.UsageQuotaRepository, maxDailyChecks int, log *logger.Logger) QuotaGate {
	return &quotaGate{
		repo:           repo,
		maxDailyChecks: maxDailyChecks,
		log:            log,
	}
}

// CheckAndIncrement enforces the quota on a best-effort basis: storage errors are
// logged and the run is allowed. The read and the increment are separate
// statements, so two simultaneous runs can both pass at count == max-1.
func (g *quotaGate) CheckAndIncrement(ctx context.Context, userID uuid.UUID, today time.Time) QuotaDecision {
	day := utils.StartOfDay(today)

	used := 0
	quota, err := g.repo.Get(ctx, userID, day)
	if err != nil {
		g.log.WarnContext(ctx, "Failed to read usage quota, allowing run",
			logger.StringField("user_id", userID.String()),
			logger.ErrorField(err))
	} else if quota != nil {
		used = quota.Count
	}

	if used >= g.maxDailyChecks {
		return QuotaDecision{Allowed: false, UsedCount: used, Remaining: 0}
	}

	if err := g.repo.Increment(ctx, userID, day); err != nil {
		g.log.ErrorContext(ctx, "Failed to increment usage quota",
			logger.StringField("user_id", userID.String()),
			logger.ErrorField(err))
	}

	used++
	remaining := g.maxDailyChecks - used
	if remaining < 0 {
		remaining = 0
	}
	return QuotaDecision{Allowed: true, UsedCount: used, Remaining: remaining}
}
