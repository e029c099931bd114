package service

import (
	"context"
	"fmt"

	"golang-stock-calls/internal/evaluator/repository"
	"golang-stock-calls/pkg/logger"

	"github.com/google/uuid"
)

// ReputationDelta counts positions a run newly closed.
type ReputationDelta struct {
	Successful int
	Lost       int
}

func (d ReputationDelta) IsZero() bool {
	return d.Successful == 0 && d.Lost == 0
}

// ReputationUpdater adds newly closed positions to the owner's success and loss totals.
type ReputationUpdater interface {
	Apply(ctx context.Context, userID uuid.UUID, delta ReputationDelta) (bool, error)
}

type reputationUpdater struct {
	repo repository.UserProfileRepository
	log  *logger.Logger
}

func NewReputationUpdater(repo repository.UserProfileRepository, log *logger.Logger) ReputationUpdater {
	return &reputationUpdater{repo: repo, log: log}
}

// Apply is a read-modify-write without locking; concurrent runs for the same
// user can lose an increment.
func (u *reputationUpdater) Apply(ctx context.Context, userID uuid.UUID, delta ReputationDelta) (bool, error) {
	if delta.IsZero() {
		return false, nil
	}

	profile, err := u.repo.FindByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load profile: %w", err)
	}

	profile.SuccessPosts += delta.Successful
	profile.LossPosts += delta.Lost
	profile.ExperienceScore = profile.SuccessPosts - profile.LossPosts

	if err := u.repo.UpdateReputation(ctx, profile); err != nil {
		return false, fmt.Errorf("failed to update reputation: %w", err)
	}

	u.log.InfoContext(ctx, "Reputation updated",
		logger.StringField("user_id", userID.String()),
		logger.IntField("success_posts", profile.SuccessPosts),
		logger.IntField("loss_posts", profile.LossPosts),
		logger.IntField("experience_score", profile.ExperienceScore))
	return true, nil
}
